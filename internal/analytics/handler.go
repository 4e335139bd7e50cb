package analytics

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/database"
)

// GET /analytics - сводная аналитика по отрасли. Результат расчета
// кэшируется по набору фильтров; кэш сбрасывается при импорте реестра.
func AnalyticsPageHandler(cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filters := parseFilters(c)

		key := cacheKey(filters)
		var ov Overview
		if cacheClient == nil || !cacheClient.Get(c.Context(), key, &ov) {
			built, err := BuildOverview(database.DB, filters)
			if err != nil {
				log.Printf("analytics build failed: %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Не удалось рассчитать аналитику")
			}
			ov = *built
			if cacheClient != nil {
				cacheClient.Set(c.Context(), key, ov)
			}
		}

		return c.Render("analytics", fiber.Map{
			"Summary":              ov.Summary,
			"RevenueByYear":        ov.RevenueByYear,
			"EmployeesByYear":      ov.EmployeesByYear,
			"InvestmentsByYear":    ov.InvestmentsByYear,
			"ExportByYear":         ov.ExportByYear,
			"TaxesByYear":          ov.TaxesByYear,
			"SalaryByYear":         ov.SalaryByYear,
			"RevenueByIndustry":    ov.RevenueByIndustry,
			"TopOrganizations":     ov.TopOrganizations,
			"AllIndustries":        ov.AllIndustries,
			"AllYears":             ov.AllYears,
			"AllCompanySizes":      ov.AllCompanySizes,
			"AllDistricts":         ov.AllDistricts,
			"SelectedIndustries":   filters.Industries,
			"SelectedYearFrom":     ov.YearFrom,
			"SelectedYearTo":       ov.YearTo,
			"SelectedCompanySizes": filters.CompanySizes,
			"SelectedDistricts":    filters.Districts,
		})
	}
}

func parseFilters(c *fiber.Ctx) Filters {
	return Filters{
		Industries:   queryMulti(c, "industries"),
		YearFrom:     c.QueryInt("year_from", 0),
		YearTo:       c.QueryInt("year_to", 0),
		CompanySizes: queryMulti(c, "company_sizes"),
		Districts:    queryMulti(c, "districts"),
	}
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

func cacheKey(f Filters) string {
	b, _ := json.Marshal(f)
	sum := sha1.Sum(b)
	return "analytics:overview:" + hex.EncodeToString(sum[:])
}
