package models

import "time"

// OrganizationMetric - финансовые и кадровые показатели за год.
// Одна запись на пару (организация, год).
type OrganizationMetric struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"not null;index:ix_org_metrics_org_year" json:"organization_id"`
	Year           int  `gorm:"not null;index:ix_org_metrics_org_year;index" json:"year"`

	Revenue         *float64 `json:"revenue"`           // выручка, тыс. руб.
	Profit          *float64 `json:"profit"`            // чистая прибыль (убыток)
	TotalEmployees  *int     `json:"total_employees"`   // численность всего
	MoscowEmployees *int     `json:"moscow_employees"`  // численность в Москве
	TotalFOT        *float64 `json:"total_fot"`         // ФОТ всего
	MoscowFOT       *float64 `json:"moscow_fot"`        // ФОТ в Москве
	AvgSalaryTotal  *float64 `json:"avg_salary_total"`  // средняя з.п. всего
	AvgSalaryMoscow *float64 `json:"avg_salary_moscow"` // средняя з.п. в Москве
	Investments     *float64 `json:"investments"`       // инвестиции в Москву
	ExportVolume    *float64 `json:"export_volume"`     // объем экспорта

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
