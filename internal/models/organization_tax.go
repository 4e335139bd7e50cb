package models

import "time"

// OrganizationTax - налоги, уплаченные в бюджет Москвы, по годам.
type OrganizationTax struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"not null;index:ix_org_taxes_org_year" json:"organization_id"`
	Year           int  `gorm:"not null;index:ix_org_taxes_org_year;index" json:"year"`

	TotalTaxesMoscow *float64 `json:"total_taxes_moscow"` // всего без акцизов
	ProfitTax        *float64 `json:"profit_tax"`
	PropertyTax      *float64 `json:"property_tax"`
	LandTax          *float64 `json:"land_tax"`
	NDFL             *float64 `json:"ndfl"`
	TransportTax     *float64 `json:"transport_tax"`
	OtherTaxes       *float64 `json:"other_taxes"`
	Excise           *float64 `json:"excise"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
