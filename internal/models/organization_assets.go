package models

import "time"

// OrganizationAssets - имущественно-земельный комплекс (одна запись на организацию).
type OrganizationAssets struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`

	CadastralNumberLand string   `gorm:"size:200" json:"cadastral_number_land"`
	LandArea            *float64 `json:"land_area"`
	LandUsage           string   `gorm:"size:200" json:"land_usage"`
	LandOwnershipType   string   `gorm:"size:200" json:"land_ownership_type"`
	LandOwner           string   `gorm:"size:500" json:"land_owner"`

	CadastralNumberBuilding string   `gorm:"size:200" json:"cadastral_number_building"`
	BuildingArea            *float64 `json:"building_area"`
	BuildingUsage           string   `gorm:"size:200" json:"building_usage"`
	BuildingType            string   `gorm:"size:200" json:"building_type"`
	BuildingPurpose         string   `gorm:"size:200" json:"building_purpose"`
	BuildingOwnershipType   string   `gorm:"size:200" json:"building_ownership_type"`
	BuildingOwner           string   `gorm:"size:500" json:"building_owner"`

	ProductionArea  *float64 `json:"production_area"`
	PropertySummary string   `gorm:"type:text" json:"property_summary"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
