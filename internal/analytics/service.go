package analytics

import (
	"time"

	"gorm.io/gorm"

	"mosprom-backend/internal/models"
)

// Filters - срез, по которому считается сводная аналитика.
type Filters struct {
	Industries   []string `json:"industries"`
	YearFrom     int      `json:"year_from"`
	YearTo       int      `json:"year_to"`
	CompanySizes []string `json:"company_sizes"`
	Districts    []string `json:"districts"`
}

type Summary struct {
	TotalOrganizations int64   `json:"total_organizations"`
	TotalRevenue       float64 `json:"total_revenue"`
	RevenueChange      float64 `json:"revenue_change"`
	TotalEmployees     int     `json:"total_employees"`
	TotalInvestments   float64 `json:"total_investments"`
	TotalExport        float64 `json:"total_export"`
	TotalTaxes         float64 `json:"total_taxes"`
	AvgSalary          float64 `json:"avg_salary"`
}

type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type IndustryRevenue struct {
	Industry string  `json:"industry"`
	Revenue  float64 `json:"revenue"`
}

type TopOrganization struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	MainIndustry string  `json:"main_industry"`
	Revenue      float64 `json:"revenue"`
	Employees    int     `json:"employees"`
	AvgSalary    float64 `json:"avg_salary"`
}

// Overview - все данные страницы аналитики. Структура сериализуется
// в кэш целиком.
type Overview struct {
	Summary           Summary           `json:"summary"`
	RevenueByYear     []YearValue       `json:"revenue_by_year"`
	EmployeesByYear   []YearValue       `json:"employees_by_year"`
	InvestmentsByYear []YearValue       `json:"investments_by_year"`
	ExportByYear      []YearValue       `json:"export_by_year"`
	TaxesByYear       []YearValue       `json:"taxes_by_year"`
	SalaryByYear      []YearValue       `json:"salary_by_year"`
	RevenueByIndustry []IndustryRevenue `json:"revenue_by_industry"`
	TopOrganizations  []TopOrganization `json:"top_organizations"`
	AllIndustries     []string          `json:"all_industries"`
	AllYears          []int             `json:"all_years"`
	AllCompanySizes   []string          `json:"all_company_sizes"`
	AllDistricts      []string          `json:"all_districts"`
	YearFrom          int               `json:"year_from"`
	YearTo            int               `json:"year_to"`
}

// BuildOverview считает сводную аналитику по выборке. Скалярные итоги
// берутся за последний год диапазона, динамика выручки сравнивается
// с предыдущим годом; при нулевой базе изменение считается нулевым.
func BuildOverview(db *gorm.DB, f Filters) (*Overview, error) {
	ov := &Overview{
		AllIndustries:   distinctOrgValues(db, "main_industry"),
		AllCompanySizes: distinctOrgValues(db, "company_size"),
		AllDistricts:    distinctOrgValues(db, "district"),
	}

	db.Model(&models.OrganizationMetric{}).
		Distinct("year").Order("year").Pluck("year", &ov.AllYears)

	yearFrom, yearTo := f.YearFrom, f.YearTo
	if yearFrom == 0 && len(ov.AllYears) > 0 {
		yearFrom = ov.AllYears[0]
	}
	if yearTo == 0 && len(ov.AllYears) > 0 {
		yearTo = ov.AllYears[len(ov.AllYears)-1]
	}
	ov.YearFrom, ov.YearTo = yearFrom, yearTo

	latestYear := yearTo
	if latestYear == 0 {
		latestYear = time.Now().Year()
	}

	if err := orgFilter(db.Model(&models.Organization{}), f).
		Count(&ov.Summary.TotalOrganizations).Error; err != nil {
		return nil, err
	}

	ov.Summary.TotalRevenue = sumMetric(db, f, latestYear, "revenue")
	prevRevenue := sumMetric(db, f, latestYear-1, "revenue")
	if prevRevenue > 0 {
		ov.Summary.RevenueChange = (ov.Summary.TotalRevenue - prevRevenue) / prevRevenue * 100
	}

	ov.Summary.TotalEmployees = int(sumMetric(db, f, latestYear, "total_employees"))
	ov.Summary.TotalInvestments = sumMetric(db, f, latestYear, "investments")
	ov.Summary.TotalExport = sumMetric(db, f, latestYear, "export_volume")
	ov.Summary.AvgSalary = avgMetric(db, f, latestYear, "avg_salary_total")

	var taxes float64
	taxQuery(db, f).
		Where("organization_taxes.year = ?", latestYear).
		Select("COALESCE(SUM(organization_taxes.total_taxes_moscow), 0)").
		Scan(&taxes)
	ov.Summary.TotalTaxes = taxes

	ov.RevenueByYear = metricSeries(db, f, "SUM(organization_metrics.revenue)")
	ov.EmployeesByYear = metricSeries(db, f, "SUM(organization_metrics.total_employees)")
	ov.InvestmentsByYear = metricSeries(db, f, "SUM(organization_metrics.investments)")
	ov.ExportByYear = metricSeries(db, f, "SUM(organization_metrics.export_volume)")
	ov.SalaryByYear = metricSeries(db, f, "AVG(organization_metrics.avg_salary_total)")
	ov.TaxesByYear = taxSeries(db, f)

	revenueByIndustry := metricQuery(db, f).
		Where("organization_metrics.year = ?", latestYear).
		Where("organizations.main_industry IS NOT NULL AND organizations.main_industry <> ''").
		Select("organizations.main_industry AS industry, COALESCE(SUM(organization_metrics.revenue), 0) AS revenue").
		Group("organizations.main_industry").
		Order("revenue DESC").
		Limit(10)
	if err := revenueByIndustry.Scan(&ov.RevenueByIndustry).Error; err != nil {
		return nil, err
	}

	topOrgs := metricQuery(db, f).
		Select(`organizations.id AS id,
			organizations.name AS name,
			organizations.main_industry AS main_industry,
			COALESCE(SUM(organization_metrics.revenue), 0) AS revenue,
			COALESCE(SUM(organization_metrics.total_employees), 0) AS employees,
			COALESCE(AVG(organization_metrics.avg_salary_total), 0) AS avg_salary`).
		Group("organizations.id, organizations.name, organizations.main_industry").
		Order("revenue DESC").
		Limit(10)
	if f.YearFrom > 0 {
		topOrgs = topOrgs.Where("organization_metrics.year >= ?", f.YearFrom)
	}
	if f.YearTo > 0 {
		topOrgs = topOrgs.Where("organization_metrics.year <= ?", f.YearTo)
	}
	if err := topOrgs.Scan(&ov.TopOrganizations).Error; err != nil {
		return nil, err
	}

	if ov.RevenueByIndustry == nil {
		ov.RevenueByIndustry = []IndustryRevenue{}
	}
	if ov.TopOrganizations == nil {
		ov.TopOrganizations = []TopOrganization{}
	}

	return ov, nil
}

func orgFilter(q *gorm.DB, f Filters) *gorm.DB {
	if len(f.Industries) > 0 {
		q = q.Where("organizations.main_industry IN ?", f.Industries)
	}
	if len(f.CompanySizes) > 0 {
		q = q.Where("organizations.company_size IN ?", f.CompanySizes)
	}
	if len(f.Districts) > 0 {
		q = q.Where("organizations.district IN ?", f.Districts)
	}
	return q
}

func metricQuery(db *gorm.DB, f Filters) *gorm.DB {
	q := db.Model(&models.OrganizationMetric{}).
		Joins("JOIN organizations ON organizations.id = organization_metrics.organization_id")
	return orgFilter(q, f)
}

func taxQuery(db *gorm.DB, f Filters) *gorm.DB {
	q := db.Model(&models.OrganizationTax{}).
		Joins("JOIN organizations ON organizations.id = organization_taxes.organization_id")
	return orgFilter(q, f)
}

func sumMetric(db *gorm.DB, f Filters, year int, column string) float64 {
	var total float64
	metricQuery(db, f).
		Where("organization_metrics.year = ?", year).
		Select("COALESCE(SUM(organization_metrics." + column + "), 0)").
		Scan(&total)
	return total
}

func avgMetric(db *gorm.DB, f Filters, year int, column string) float64 {
	var avg float64
	metricQuery(db, f).
		Where("organization_metrics.year = ?", year).
		Select("COALESCE(AVG(organization_metrics." + column + "), 0)").
		Scan(&avg)
	return avg
}

func metricSeries(db *gorm.DB, f Filters, agg string) []YearValue {
	q := metricQuery(db, f).
		Select("organization_metrics.year AS year, COALESCE(" + agg + ", 0) AS value").
		Group("organization_metrics.year").
		Order("organization_metrics.year")
	if f.YearFrom > 0 {
		q = q.Where("organization_metrics.year >= ?", f.YearFrom)
	}
	if f.YearTo > 0 {
		q = q.Where("organization_metrics.year <= ?", f.YearTo)
	}
	var series []YearValue
	q.Scan(&series)
	if series == nil {
		series = []YearValue{}
	}
	return series
}

func taxSeries(db *gorm.DB, f Filters) []YearValue {
	q := taxQuery(db, f).
		Select("organization_taxes.year AS year, COALESCE(SUM(organization_taxes.total_taxes_moscow), 0) AS value").
		Group("organization_taxes.year").
		Order("organization_taxes.year")
	if f.YearFrom > 0 {
		q = q.Where("organization_taxes.year >= ?", f.YearFrom)
	}
	if f.YearTo > 0 {
		q = q.Where("organization_taxes.year <= ?", f.YearTo)
	}
	var series []YearValue
	q.Scan(&series)
	if series == nil {
		series = []YearValue{}
	}
	return series
}

func distinctOrgValues(db *gorm.DB, column string) []string {
	var values []string
	db.Model(&models.Organization{}).
		Distinct(column).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column).
		Pluck(column, &values)
	return values
}
