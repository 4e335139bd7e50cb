package models

import "time"

// Organization - основная запись о предприятии. Ключ для выгрузок и
// обновлений из реестра - ИНН (10 или 12 цифр).
type Organization struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	INN      string `gorm:"size:12;not null;uniqueIndex" json:"inn"`
	Name     string `gorm:"size:500;not null;index" json:"name"`
	FullName string `gorm:"size:1000" json:"full_name"`

	StatusSpark    string     `gorm:"size:200" json:"status_spark"`
	StatusInternal string     `gorm:"size:200" json:"status_internal"`
	StatusFinal    string     `gorm:"size:200" json:"status_final"`
	DateAdded      *time.Time `json:"date_added"`

	LegalAddress      string `gorm:"size:1000" json:"legal_address"`
	ProductionAddress string `gorm:"size:1000" json:"production_address"`
	AdditionalAddress string `gorm:"size:1000" json:"additional_address"`

	MainIndustry     string `gorm:"size:200;index" json:"main_industry"`
	MainSubindustry  string `gorm:"size:200" json:"main_subindustry"`
	ExtraIndustry    string `gorm:"size:200" json:"extra_industry"`
	ExtraSubindustry string `gorm:"size:200" json:"extra_subindustry"`

	MainOKVED     string `gorm:"size:100" json:"main_okved"`
	MainOKVEDName string `gorm:"size:200" json:"main_okved_name"`
	ProdOKVED     string `gorm:"size:100" json:"prod_okved"`
	ProdOKVEDName string `gorm:"size:200" json:"prod_okved_name"`

	CompanyInfo string `gorm:"type:text" json:"company_info"`

	// Размер предприятия: текущая оценка и фиксированный срез 2022 года.
	// Колонки срезов именованы явно: автонейминг GORM дал бы company_size2022.
	CompanySize         string `gorm:"size:100" json:"company_size"`
	CompanySize2022     string `gorm:"column:company_size_2022;size:100" json:"company_size_2022"`
	SizeByEmployees     string `gorm:"size:100" json:"size_by_employees"`
	SizeByEmployees2022 string `gorm:"column:size_by_employees_2022;size:100" json:"size_by_employees_2022"`
	SizeByRevenue       string `gorm:"size:100" json:"size_by_revenue"`
	SizeByRevenue2022   string `gorm:"column:size_by_revenue_2022;size:100" json:"size_by_revenue_2022"`

	RegistrationDate   *time.Time `json:"registration_date"`
	HeadName           string     `gorm:"size:200" json:"head_name"`
	ParentOrgName      string     `gorm:"size:500" json:"parent_org_name"`
	ParentOrgINN       string     `gorm:"size:12" json:"parent_org_inn"`
	ParentRelationType string     `gorm:"size:200" json:"parent_relation_type"`

	HeadContacts     string `gorm:"size:500" json:"head_contacts"`
	HeadEmail        string `gorm:"size:200" json:"head_email"`
	EmployeeContact  string `gorm:"size:500" json:"employee_contact"`
	Phone            string `gorm:"size:100" json:"phone"`
	EmergencyContact string `gorm:"size:500" json:"emergency_contact"`
	Website          string `gorm:"size:300" json:"website"`
	Email            string `gorm:"size:200" json:"email"`

	SupportData      string `gorm:"type:text" json:"support_data"`
	SpecialStatus    string `gorm:"size:200" json:"special_status"`
	SiteFinal        string `gorm:"size:200" json:"site_final"`
	GotMoscowSupport bool   `gorm:"default:false" json:"got_moscow_support"`
	IsSystemCritical bool   `gorm:"default:false" json:"is_system_critical"`
	MSPStatus        string `gorm:"size:100" json:"msp_status"`

	CoordinatesLat          *float64 `json:"coordinates_lat"`
	CoordinatesLon          *float64 `json:"coordinates_lon"`
	LegalAddressCoords      string   `gorm:"size:200" json:"legal_address_coords"`
	ProductionAddressCoords string   `gorm:"size:200" json:"production_address_coords"`
	AdditionalAddressCoords string   `gorm:"size:200" json:"additional_address_coords"`

	District string `gorm:"size:200;index" json:"district"`
	Region   string `gorm:"size:200" json:"region"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Metrics  []OrganizationMetric  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Taxes    []OrganizationTax     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Assets   []OrganizationAssets  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Products []OrganizationProduct `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Meta     []OrganizationMeta    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
