package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"mosprom-backend/internal/audit"
	"mosprom-backend/internal/auth"
	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
)

// invalidateAnalytics сбрасывает кэш аналитики: обогащение из ФНС
// меняет агрегаты (выручка, прибыль).
func invalidateAnalytics(cacheClient *cache.Client) {
	if cacheClient != nil {
		cacheClient.ClearPattern(context.Background(), "analytics:*")
	}
}

func statusFor(err error) *fiber.Error {
	switch {
	case errors.Is(err, ErrInvalidINN):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, ErrUnavailable.Error())
	}
}

// GET /api/fns/organization/:inn - карточка из ФНС для формы создания
func OrganizationHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inn := c.Params("inn")

		org, err := client.OrganizationByINN(c.Context(), inn)
		if err != nil {
			return statusFor(err)
		}

		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Данные организации получены из ФНС",
			"data":    org,
		})
	}
}

// UpdateFromFNSHandler обновляет карточку предприятия данными из ЕГРЮЛ.
// Меняются только заполненные в ответе ФНС поля; список измененных
// полей возвращается клиенту.
//
// POST /api/organizations/:id/update-from-fns
func UpdateFromFNSHandler(client *Client, cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		org, err := loadOrganization(c)
		if err != nil {
			return err
		}
		if org.INN == "" {
			return fiber.NewError(fiber.StatusBadRequest, "У организации не указан ИНН")
		}

		fnsOrg, ferr := client.OrganizationByINN(c.Context(), org.INN)
		if ferr != nil {
			return statusFor(ferr)
		}

		before := *org
		updatedFields := applyFNSData(org, fnsOrg)

		if err := database.DB.Save(org).Error; err != nil {
			log.Printf("fns update failed: id=%d: %v", org.ID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось сохранить данные из ФНС")
		}
		invalidateAnalytics(cacheClient)

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "organization",
			EntityID:    org.ID,
			Action:      models.AuditActionEnrich,
			Description: fmt.Sprintf("Данные предприятия %s обновлены из ФНС", org.INN),
			Before:      before,
			After:       org,
		})

		return c.JSON(fiber.Map{
			"status":          "success",
			"message":         fmt.Sprintf("Данные обновлены из ФНС. Обновлено полей: %d", len(updatedFields)),
			"organization_id": org.ID,
			"updated_fields":  updatedFields,
			"inn":             org.INN,
		})
	}
}

// ImportFinancialsHandler подтягивает выручку и прибыль из
// бухгалтерской отчетности ФНС. Значения в отчетности даны в тыс.
// руб., в базе показатели хранятся в руб., поэтому умножаем на 1000.
//
// POST /api/organizations/:id/import-financials
func ImportFinancialsHandler(client *Client, cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		org, err := loadOrganization(c)
		if err != nil {
			return err
		}
		if org.INN == "" {
			return fiber.NewError(fiber.StatusBadRequest, "У организации не указан ИНН")
		}
		if len(org.INN) != 10 {
			return fiber.NewError(fiber.StatusBadRequest,
				"Бухгалтерская отчетность доступна только юридическим лицам")
		}

		statements, ferr := client.FinancialStatements(c.Context(), org.INN)
		if ferr != nil {
			return statusFor(ferr)
		}

		var importedYears, updatedYears []int
		for year, rows := range statements {
			revenue, hasRevenue := rows["2110"]
			profit, hasProfit := rows["2400"]
			if !hasRevenue && !hasProfit {
				continue
			}

			var metric models.OrganizationMetric
			lookupErr := database.DB.
				Where("organization_id = ? AND year = ?", org.ID, year).
				First(&metric).Error
			if lookupErr == nil {
				if hasRevenue {
					v := revenue * 1000
					metric.Revenue = &v
				}
				if hasProfit {
					v := profit * 1000
					metric.Profit = &v
				}
				if err := database.DB.Save(&metric).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Не удалось сохранить показатели")
				}
				updatedYears = append(updatedYears, year)
			} else {
				metric = models.OrganizationMetric{
					OrganizationID: org.ID,
					Year:           year,
				}
				if hasRevenue {
					v := revenue * 1000
					metric.Revenue = &v
				}
				if hasProfit {
					v := profit * 1000
					metric.Profit = &v
				}
				if err := database.DB.Create(&metric).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Не удалось сохранить показатели")
				}
				importedYears = append(importedYears, year)
			}
		}
		sort.Ints(importedYears)
		sort.Ints(updatedYears)
		if len(importedYears)+len(updatedYears) > 0 {
			invalidateAnalytics(cacheClient)
		}

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "organization",
			EntityID:    org.ID,
			Action:      models.AuditActionEnrich,
			Description: fmt.Sprintf("Импортирована отчетность ФНС для ИНН %s", org.INN),
		})

		return c.JSON(fiber.Map{
			"status":          "success",
			"message":         "Бухгалтерская отчётность импортирована из ФНС",
			"organization_id": org.ID,
			"imported_years":  importedYears,
			"updated_years":   updatedYears,
			"total_years":     len(importedYears) + len(updatedYears),
			"inn":             org.INN,
		})
	}
}

var fnsDateFormats = []string{"2006-01-02", "02.01.2006"}

func applyFNSData(org *models.Organization, data *Organization) []string {
	var updated []string

	setStr := func(field string, dst *string, value string) {
		if value != "" && *dst != value {
			*dst = value
			updated = append(updated, field)
		}
	}

	setStr("name", &org.Name, data.Name)
	setStr("full_name", &org.FullName, data.FullName)
	setStr("legal_address", &org.LegalAddress, data.LegalAddress)
	setStr("status_final", &org.StatusFinal, data.Status)
	setStr("main_okved", &org.MainOKVED, data.MainOKVED)
	setStr("main_okved_name", &org.MainOKVEDName, data.MainOKVEDName)
	setStr("head_name", &org.HeadName, data.HeadName)

	if data.RegistrationDate != "" {
		for _, layout := range fnsDateFormats {
			t, err := time.Parse(layout, data.RegistrationDate)
			if err != nil {
				continue
			}
			if org.RegistrationDate == nil || !org.RegistrationDate.Equal(t) {
				org.RegistrationDate = &t
				updated = append(updated, "registration_date")
			}
			break
		}
	}

	return updated
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
