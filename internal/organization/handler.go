package organization

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"mosprom-backend/internal/audit"
	"mosprom-backend/internal/auth"
	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/database"
	"mosprom-backend/internal/excel"
	"mosprom-backend/internal/models"
	"mosprom-backend/internal/registry"
)

const perPage = 20

// invalidateAnalytics сбрасывает кэш аналитики после любой записи,
// меняющей агрегаты.
func invalidateAnalytics(cacheClient *cache.Client) {
	if cacheClient != nil {
		cacheClient.ClearPattern(context.Background(), "analytics:*")
	}
}

// GET /organizations - страница реестра с фильтрами и пагинацией
func ListOrganizationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		filters := ParseFilters(c)

		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}

		q := filters.Apply(database.DB.Model(&models.Organization{}))

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось получить список организаций")
		}
		totalPages := int((total + perPage - 1) / perPage)

		var orgs []models.Organization
		if err := filters.ApplyOrder(q).
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&orgs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось получить список организаций")
		}

		return c.Render("organizations", fiber.Map{
			"Organizations":      orgs,
			"Page":               page,
			"TotalPages":         totalPages,
			"Total":              total,
			"Search":             filters.Search,
			"SelectedIndustries": filters.Industries,
			"SelectedDistricts":  filters.Districts,
			"SelectedRegions":    filters.Regions,
			"SelectedSizes":      filters.Sizes,
			"Industries":         distinctValues(database.DB, "main_industry"),
			"Districts":          distinctValues(database.DB, "district"),
			"Regions":            distinctValues(database.DB, "region"),
			"Sizes":              distinctValues(database.DB, "company_size"),
			"SortBy":             filters.SortBy,
			"Order":              filters.Order,
		})
	}
}

// GET /organizations/create
func CreatePageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("organization_create", fiber.Map{})
	}
}

// POST /api/organizations
func CreateOrganizationHandler(cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var org models.Organization
		if err := c.BodyParser(&org); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Некорректное тело запроса")
		}
		org.ID = 0

		org.INN = strings.TrimSpace(org.INN)
		org.Name = strings.TrimSpace(org.Name)
		if org.INN == "" || org.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "ИНН и наименование обязательны")
		}
		if !registry.ValidINN(org.INN) {
			return fiber.NewError(fiber.StatusBadRequest, "ИНН должен состоять из 10 или 12 цифр")
		}

		var existing models.Organization
		if err := database.DB.Where("inn = ?", org.INN).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("ОШИБКА: Предприятие с ИНН %s уже существует в базе", org.INN))
		}

		if err := database.DB.Create(&org).Error; err != nil {
			log.Printf("organization create failed: %v", err)
			return fiber.NewError(fiber.StatusBadRequest, "ОШИБКА: Нарушение целостности базы данных")
		}
		invalidateAnalytics(cacheClient)

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "organization",
			EntityID:    org.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Создано предприятие %s (ИНН %s)", org.Name, org.INN),
			After:       org,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":         true,
			"message":         fmt.Sprintf("Предприятие '%s' успешно создано", org.Name),
			"organization_id": org.ID,
			"inn":             org.INN,
			"name":            org.Name,
		})
	}
}

// GET /organizations/export - выгрузка текущей выборки в Excel
func ExportOrganizationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		filters := ParseFilters(c)

		var orgs []models.Organization
		q := filters.Apply(database.DB.Model(&models.Organization{}))
		if err := filters.ApplyOrder(q).Find(&orgs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "ОШИБКА ЭКСПОРТА: не удалось получить данные")
		}
		if len(orgs) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Нет данных для экспорта")
		}

		f, err := excel.BuildWorkbook(database.DB, orgs)
		if err != nil {
			log.Printf("export failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "ОШИБКА ЭКСПОРТА: не удалось сформировать файл")
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "ОШИБКА ЭКСПОРТА: не удалось записать файл")
		}

		log.Printf("exported %d organizations", len(orgs))

		filename := fmt.Sprintf("predpriyatiya_%s.xlsx", time.Now().Format("20060102_150405"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
		return c.Send(buf.Bytes())
	}
}

// GET /organizations/:id - карточка предприятия
func ViewOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		org, err := loadOrganization(c)
		if err != nil {
			return err
		}

		metrics, taxes, assets, products, meta := loadChildren(org.ID)

		return c.Render("organization_detail", fiber.Map{
			"Org":      org,
			"Metrics":  metrics,
			"Taxes":    taxes,
			"Assets":   assets,
			"Products": products,
			"Meta":     meta,
		})
	}
}

// GET /organizations/:id/edit
func EditPageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		org, err := loadOrganization(c)
		if err != nil {
			return err
		}

		metrics, taxes, assets, products, meta := loadChildren(org.ID)

		return c.Render("organization_edit_full", fiber.Map{
			"Org":      org,
			"Metrics":  metrics,
			"Taxes":    taxes,
			"Assets":   assets,
			"Products": products,
			"Meta":     meta,
		})
	}
}

// DELETE /api/organizations/:id - удаление вместе со всеми дочерними
// записями (показатели, налоги, имущество, продукция, справка)
func DeleteOrganizationHandler(cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		org, err := loadOrganization(c)
		if err != nil {
			return err
		}

		if err := database.DB.Select(clause.Associations).Delete(org).Error; err != nil {
			log.Printf("organization delete failed: id=%d: %v", org.ID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось удалить организацию")
		}
		invalidateAnalytics(cacheClient)

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "organization",
			EntityID:    org.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Удалено предприятие %s (ИНН %s)", org.Name, org.INN),
			Before:      org,
		})

		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Организация успешно удалена",
		})
	}
}

func loadOrganization(c *fiber.Ctx) (*models.Organization, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Некорректный идентификатор организации")
	}
	var org models.Organization
	if err := database.DB.First(&org, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Организация не найдена")
	}
	return &org, nil
}

func loadChildren(orgID uint) (
	[]models.OrganizationMetric,
	[]models.OrganizationTax,
	[]models.OrganizationAssets,
	[]models.OrganizationProduct,
	*models.OrganizationMeta,
) {
	var metrics []models.OrganizationMetric
	database.DB.Where("organization_id = ?", orgID).Order("year").Find(&metrics)

	var taxes []models.OrganizationTax
	database.DB.Where("organization_id = ?", orgID).Order("year").Find(&taxes)

	var assets []models.OrganizationAssets
	database.DB.Where("organization_id = ?", orgID).Find(&assets)

	var products []models.OrganizationProduct
	database.DB.Where("organization_id = ?", orgID).Find(&products)

	var meta models.OrganizationMeta
	if err := database.DB.Where("organization_id = ?", orgID).First(&meta).Error; err != nil {
		return metrics, taxes, assets, products, nil
	}
	return metrics, taxes, assets, products, &meta
}
