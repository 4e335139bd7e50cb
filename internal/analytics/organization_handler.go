package analytics

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
)

// Trend - изменение показателя к прошлому году. Не считается, когда
// база нулевая или за прошлый год данных нет.
type Trend struct {
	Change    string `json:"change"`
	Direction string `json:"direction"`
}

type IndustryPeer struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Revenue   float64  `json:"revenue"`
	Profit    float64  `json:"profit"`
	Employees *int     `json:"employees"`
	AvgSalary *float64 `json:"avg_salary"`
}

// GET /organizations/:id/analytics - аналитика по одному предприятию
func OrganizationAnalyticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Некорректный идентификатор организации")
		}
		var org models.Organization
		if err := database.DB.First(&org, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Организация не найдена")
		}

		var metrics []models.OrganizationMetric
		database.DB.Where("organization_id = ?", org.ID).Order("year").Find(&metrics)

		var taxes []models.OrganizationTax
		database.DB.Where("organization_id = ?", org.ID).Order("year").Find(&taxes)

		latestYear := time.Now().Year()
		if len(metrics) > 0 {
			latestYear = metrics[len(metrics)-1].Year
		}

		latest, revenueTrend, employeesTrend := trendsFor(metrics, latestYear)

		var peers []IndustryPeer
		if org.MainIndustry != "" {
			database.DB.Model(&models.OrganizationMetric{}).
				Joins("JOIN organizations ON organizations.id = organization_metrics.organization_id").
				Where("organizations.main_industry = ?", org.MainIndustry).
				Where("organization_metrics.year = ?", latestYear).
				Select(`organizations.id AS id,
					organizations.name AS name,
					COALESCE(MAX(organization_metrics.revenue), 0) AS revenue,
					COALESCE(MAX(organization_metrics.profit), 0) AS profit,
					MAX(organization_metrics.total_employees) AS employees,
					MAX(organization_metrics.avg_salary_total) AS avg_salary`).
				Group("organizations.id, organizations.name").
				Order("revenue DESC").
				Limit(10).
				Scan(&peers)
		}

		return c.Render("organization_analytics", fiber.Map{
			"Organization":       org,
			"LatestYear":         latestYear,
			"LatestMetrics":      latest,
			"Metrics":            metrics,
			"Taxes":              taxes,
			"RevenueTrend":       revenueTrend,
			"EmployeesTrend":     employeesTrend,
			"IndustryComparison": peers,
		})
	}
}

// trendsFor считает годовую динамику выручки и численности. Тренд не
// считается, когда за прошлый год данных нет или база нулевая.
func trendsFor(metrics []models.OrganizationMetric, latestYear int) (latest *models.OrganizationMetric, revenueTrend, employeesTrend *Trend) {
	var prev *models.OrganizationMetric
	for i := range metrics {
		switch metrics[i].Year {
		case latestYear:
			latest = &metrics[i]
		case latestYear - 1:
			prev = &metrics[i]
		}
	}
	if latest == nil || prev == nil {
		return latest, nil, nil
	}
	if latest.Revenue != nil && prev.Revenue != nil && *prev.Revenue != 0 {
		revenueTrend = makeTrend((*latest.Revenue - *prev.Revenue) / *prev.Revenue * 100)
	}
	if latest.TotalEmployees != nil && prev.TotalEmployees != nil && *prev.TotalEmployees != 0 {
		employeesTrend = makeTrend(
			float64(*latest.TotalEmployees-*prev.TotalEmployees) / float64(*prev.TotalEmployees) * 100)
	}
	return latest, revenueTrend, employeesTrend
}

func makeTrend(change float64) *Trend {
	arrow := "→"
	direction := "neutral"
	switch {
	case change > 0:
		arrow = "↑"
		direction = "up"
	case change < 0:
		arrow = "↓"
		direction = "down"
	}
	abs := change
	if abs < 0 {
		abs = -abs
	}
	return &Trend{
		Change:    fmt.Sprintf("%s %.1f%%", arrow, abs),
		Direction: direction,
	}
}
