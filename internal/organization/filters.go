package organization

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mosprom-backend/internal/models"
)

// sortColumns - белый список полей сортировки. Все, что не из списка,
// приводится к сортировке по наименованию.
var sortColumns = map[string]string{
	"name":          "name",
	"inn":           "inn",
	"main_industry": "main_industry",
	"status_final":  "status_final",
	"district":      "district",
	"region":        "region",
	"company_size":  "company_size",
}

// FilterParams - параметры фильтрации списка организаций. Один и тот
// же набор используется страницей списка и выгрузкой в Excel.
type FilterParams struct {
	Search     string
	Industries []string
	Districts  []string
	Regions    []string
	Sizes      []string
	SortBy     string
	Order      string
}

// ParseFilters читает параметры фильтра из запроса. Многозначные
// параметры (industry, district, region, size) могут повторяться.
func ParseFilters(c *fiber.Ctx) FilterParams {
	f := FilterParams{
		Search:     c.Query("search"),
		Industries: queryMulti(c, "industry"),
		Districts:  queryMulti(c, "district"),
		Regions:    queryMulti(c, "region"),
		Sizes:      queryMulti(c, "size"),
		SortBy:     c.Query("sort_by", "name"),
		Order:      c.Query("order", "asc"),
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "name"
	}
	if f.Order != "desc" {
		f.Order = "asc"
	}
	return f
}

func queryMulti(c *fiber.Ctx, key string) []string {
	raw := c.Context().QueryArgs().PeekMulti(key)
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if len(v) > 0 {
			values = append(values, string(v))
		}
	}
	return values
}

// Apply навешивает условия фильтра на запрос. Поиск регистронезависимый
// через LOWER(...) LIKE. Встроенный LOWER в SQLite понимает только ASCII,
// поэтому тесты регистрируют свою unicode-версию функции.
func (f FilterParams) Apply(q *gorm.DB) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(inn) LIKE LOWER(?)", pattern, pattern)
	}
	if len(f.Industries) > 0 {
		sub := q.Session(&gorm.Session{NewDB: true})
		for i, ind := range f.Industries {
			pattern := "%" + ind + "%"
			cond := "LOWER(main_industry) LIKE LOWER(?) OR LOWER(extra_industry) LIKE LOWER(?)"
			if i == 0 {
				sub = sub.Where(cond, pattern, pattern)
			} else {
				sub = sub.Or(cond, pattern, pattern)
			}
		}
		q = q.Where(sub)
	}
	if len(f.Districts) > 0 {
		q = q.Where(orLike(q, "district", f.Districts))
	}
	if len(f.Regions) > 0 {
		q = q.Where(orLike(q, "region", f.Regions))
	}
	if len(f.Sizes) > 0 {
		sub := q.Session(&gorm.Session{NewDB: true})
		for i, s := range f.Sizes {
			pattern := "%" + s + "%"
			cond := "LOWER(company_size) LIKE LOWER(?) OR LOWER(company_size_2022) LIKE LOWER(?)"
			if i == 0 {
				sub = sub.Where(cond, pattern, pattern)
			} else {
				sub = sub.Or(cond, pattern, pattern)
			}
		}
		q = q.Where(sub)
	}
	return q
}

// ApplyOrder добавляет сортировку по выбранной колонке.
func (f FilterParams) ApplyOrder(q *gorm.DB) *gorm.DB {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "name"
	}
	if f.Order == "desc" {
		return q.Order(col + " DESC")
	}
	return q.Order(col + " ASC")
}

func orLike(q *gorm.DB, column string, values []string) *gorm.DB {
	sub := q.Session(&gorm.Session{NewDB: true})
	for i, v := range values {
		pattern := "%" + v + "%"
		cond := "LOWER(" + column + ") LIKE LOWER(?)"
		if i == 0 {
			sub = sub.Where(cond, pattern)
		} else {
			sub = sub.Or(cond, pattern)
		}
	}
	return sub
}

// distinctValues возвращает отсортированный список непустых значений
// колонки для выпадающих фильтров.
func distinctValues(db *gorm.DB, column string) []string {
	var values []string
	db.Model(&models.Organization{}).
		Distinct(column).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column).
		Pluck(column, &values)
	return values
}
