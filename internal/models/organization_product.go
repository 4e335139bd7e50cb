package models

import "time"

// OrganizationProduct - производимая продукция.
type OrganizationProduct struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`

	ProductName         string `gorm:"size:500" json:"product_name"`
	StandardizedProduct string `gorm:"size:500" json:"standardized_product"`
	OKPD2Codes          string `gorm:"size:500" json:"okpd2_codes"`
	ProductTypes        string `gorm:"size:500" json:"product_types"`
	ProductCatalog      string `gorm:"size:500" json:"product_catalog"`

	HasGovernmentOrders  bool     `gorm:"default:false" json:"has_government_orders"`
	CapacityUsage        string   `gorm:"size:200" json:"capacity_usage"`
	HasExport            bool     `gorm:"default:false" json:"has_export"`
	ExportVolumeLastYear *float64 `json:"export_volume_last_year"`
	ExportCountries      string   `gorm:"size:1000" json:"export_countries"`
	TNVEDCode            string   `gorm:"size:100" json:"tnved_code"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
