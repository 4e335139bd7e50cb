package organization

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mosprom-backend/internal/audit"
	"mosprom-backend/internal/auth"
	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
)

// editableColumns - поля карточки, которые разрешено менять через
// полное редактирование. Имена совпадают с колонками модели.
var editableColumns = func() map[string]bool {
	cols := []string{
		"inn", "name", "full_name",
		"status_spark", "status_internal", "status_final",
		"legal_address", "production_address", "additional_address",
		"main_industry", "main_subindustry",
		"extra_industry", "extra_subindustry",
		"main_okved", "main_okved_name",
		"prod_okved", "prod_okved_name",
		"company_info",
		"company_size", "company_size_2022",
		"size_by_employees", "size_by_employees_2022",
		"size_by_revenue", "size_by_revenue_2022",
		"head_name", "parent_org_name", "parent_org_inn",
		"parent_relation_type",
		"head_contacts", "head_email", "employee_contact",
		"phone", "emergency_contact", "website", "email",
		"support_data", "special_status", "site_final",
		"got_moscow_support", "is_system_critical", "msp_status",
		"legal_address_coords", "production_address_coords",
		"additional_address_coords",
		"coordinates_lat", "coordinates_lon",
		"district", "region",
	}
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}()

type metricInput struct {
	Year            int      `json:"year"`
	Revenue         *float64 `json:"revenue"`
	Profit          *float64 `json:"profit"`
	TotalEmployees  *int     `json:"total_employees"`
	MoscowEmployees *int     `json:"moscow_employees"`
	TotalFOT        *float64 `json:"total_fot"`
	MoscowFOT       *float64 `json:"moscow_fot"`
	AvgSalaryTotal  *float64 `json:"avg_salary_total"`
	AvgSalaryMoscow *float64 `json:"avg_salary_moscow"`
	Investments     *float64 `json:"investments"`
	ExportVolume    *float64 `json:"export_volume"`
}

type taxInput struct {
	Year             int      `json:"year"`
	TotalTaxesMoscow *float64 `json:"total_taxes_moscow"`
	ProfitTax        *float64 `json:"profit_tax"`
	PropertyTax      *float64 `json:"property_tax"`
	LandTax          *float64 `json:"land_tax"`
	NDFL             *float64 `json:"ndfl"`
	TransportTax     *float64 `json:"transport_tax"`
	OtherTaxes       *float64 `json:"other_taxes"`
	Excise           *float64 `json:"excise"`
}

type fullUpdateRequest struct {
	General  map[string]any                `json:"general"`
	Metrics  *[]metricInput                `json:"metrics"`
	Taxes    *[]taxInput                   `json:"taxes"`
	Assets   *[]models.OrganizationAssets  `json:"assets"`
	Products *[]models.OrganizationProduct `json:"products"`
	Meta     *models.OrganizationMeta      `json:"meta"`
}

// POST /api/organizations/:id/edit-full - единая форма редактирования.
// Присланные разделы (metrics, taxes, assets, products) заменяются
// целиком; отсутствующие в запросе разделы не трогаются.
func UpdateOrganizationFullHandler(cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		org, err := loadOrganization(c)
		if err != nil {
			return err
		}

		var req fullUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Некорректное тело запроса")
		}

		before := *org

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if len(req.General) > 0 {
				updates := make(map[string]any, len(req.General))
				for key, value := range req.General {
					if editableColumns[key] {
						updates[key] = value
					}
				}
				if len(updates) > 0 {
					if err := tx.Model(org).Updates(updates).Error; err != nil {
						return err
					}
				}
			}

			if req.Metrics != nil {
				if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationMetric{}).Error; err != nil {
					return err
				}
				for _, in := range *req.Metrics {
					if in.Year == 0 {
						continue
					}
					m := models.OrganizationMetric{
						OrganizationID:  org.ID,
						Year:            in.Year,
						Revenue:         in.Revenue,
						Profit:          in.Profit,
						TotalEmployees:  in.TotalEmployees,
						MoscowEmployees: in.MoscowEmployees,
						TotalFOT:        in.TotalFOT,
						MoscowFOT:       in.MoscowFOT,
						AvgSalaryTotal:  in.AvgSalaryTotal,
						AvgSalaryMoscow: in.AvgSalaryMoscow,
						Investments:     in.Investments,
						ExportVolume:    in.ExportVolume,
					}
					if err := tx.Create(&m).Error; err != nil {
						return err
					}
				}
			}

			if req.Taxes != nil {
				if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationTax{}).Error; err != nil {
					return err
				}
				for _, in := range *req.Taxes {
					if in.Year == 0 {
						continue
					}
					t := models.OrganizationTax{
						OrganizationID:   org.ID,
						Year:             in.Year,
						TotalTaxesMoscow: in.TotalTaxesMoscow,
						ProfitTax:        in.ProfitTax,
						PropertyTax:      in.PropertyTax,
						LandTax:          in.LandTax,
						NDFL:             in.NDFL,
						TransportTax:     in.TransportTax,
						OtherTaxes:       in.OtherTaxes,
						Excise:           in.Excise,
					}
					if err := tx.Create(&t).Error; err != nil {
						return err
					}
				}
			}

			if req.Assets != nil {
				if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationAssets{}).Error; err != nil {
					return err
				}
				for _, in := range *req.Assets {
					in.ID = 0
					in.OrganizationID = org.ID
					if err := tx.Create(&in).Error; err != nil {
						return err
					}
				}
			}

			if req.Products != nil {
				if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationProduct{}).Error; err != nil {
					return err
				}
				for _, in := range *req.Products {
					in.ID = 0
					in.OrganizationID = org.ID
					if err := tx.Create(&in).Error; err != nil {
						return err
					}
				}
			}

			if req.Meta != nil {
				var meta models.OrganizationMeta
				err := tx.Where("organization_id = ?", org.ID).First(&meta).Error
				if err == nil {
					meta.IndustrySpark = req.Meta.IndustrySpark
					meta.IndustryDirectory = req.Meta.IndustryDirectory
					meta.PresentationLinks = req.Meta.PresentationLinks
					meta.RegistryDevelopment = req.Meta.RegistryDevelopment
					meta.OtherNotes = req.Meta.OtherNotes
					if err := tx.Save(&meta).Error; err != nil {
						return err
					}
				} else {
					req.Meta.ID = 0
					req.Meta.OrganizationID = org.ID
					if err := tx.Create(req.Meta).Error; err != nil {
						return err
					}
				}
			}

			return nil
		})
		if txErr != nil {
			log.Printf("organization full update failed: id=%d: %v", org.ID, txErr)
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось обновить данные организации")
		}
		invalidateAnalytics(cacheClient)

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "organization",
			EntityID:    org.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Обновлены данные предприятия %s (ИНН %s)", org.Name, org.INN),
			Before:      before,
			After:       req.General,
		})

		return c.JSON(fiber.Map{
			"status":          "success",
			"message":         "Все данные организации успешно обновлены",
			"organization_id": org.ID,
		})
	}
}
