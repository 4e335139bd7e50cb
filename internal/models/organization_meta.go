package models

import "time"

// OrganizationMeta - справочная классификация и заметки (одна запись на организацию).
type OrganizationMeta struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`

	IndustrySpark       string `gorm:"size:500" json:"industry_spark"`
	IndustryDirectory   string `gorm:"size:500" json:"industry_directory"`
	PresentationLinks   string `gorm:"size:1000" json:"presentation_links"`
	RegistryDevelopment string `gorm:"type:text" json:"registry_development"`
	OtherNotes          string `gorm:"type:text" json:"other_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
