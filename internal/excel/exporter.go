package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"mosprom-backend/internal/models"
)

// BuildWorkbook выгружает организации в книгу Excel в том же формате
// колонок, что и импорт. Дочерние записи запрашиваются по каждой
// организации отдельно.
func BuildWorkbook(db *gorm.DB, orgs []models.Organization) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	headers := headerRow()
	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerCells); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(columnCount)
		_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", style)
	}
	_ = f.SetRowHeight(sheetName, 1, 60)

	for i := range orgs {
		org := &orgs[i]
		row, err := organizationRow(db, org, i+1)
		if err != nil {
			return nil, fmt.Errorf("организация %s: %w", org.INN, err)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func organizationRow(db *gorm.DB, org *models.Organization, num int) ([]interface{}, error) {
	row := make([]interface{}, columnCount)

	row[colRowNum] = num
	row[colINN] = org.INN
	row[colName] = org.Name
	row[colFullName] = org.FullName
	row[colStatusSpark] = org.StatusSpark
	row[colStatusInternal] = org.StatusInternal
	row[colStatusFinal] = org.StatusFinal
	row[colDateAdded] = fmtDate(org.DateAdded)
	row[colLegalAddress] = org.LegalAddress
	row[colProductionAddress] = org.ProductionAddress
	row[colAdditionalAddress] = org.AdditionalAddress
	row[colMainIndustry] = org.MainIndustry
	row[colMainSubindustry] = org.MainSubindustry
	row[colExtraIndustry] = org.ExtraIndustry
	row[colExtraSubindustry] = org.ExtraSubindustry
	row[colMainOKVED] = org.MainOKVED
	row[colMainOKVEDName] = org.MainOKVEDName
	row[colProdOKVED] = org.ProdOKVED
	row[colProdOKVEDName] = org.ProdOKVEDName
	row[colCompanyInfo] = org.CompanyInfo
	row[colCompanySize] = org.CompanySize
	row[colCompanySize2022] = org.CompanySize2022
	row[colSizeByEmployees] = org.SizeByEmployees
	row[colSizeByEmployees2022] = org.SizeByEmployees2022
	row[colSizeByRevenue] = org.SizeByRevenue
	row[colSizeByRevenue2022] = org.SizeByRevenue2022
	row[colRegistrationDate] = fmtDate(org.RegistrationDate)
	row[colHeadName] = org.HeadName
	row[colParentOrgName] = org.ParentOrgName
	row[colParentOrgINN] = org.ParentOrgINN
	row[colParentRelationType] = org.ParentRelationType
	row[colHeadContacts] = org.HeadContacts
	row[colHeadEmail] = org.HeadEmail
	row[colEmployeeContact] = org.EmployeeContact
	row[colPhone] = org.Phone
	row[colEmergencyContact] = org.EmergencyContact
	row[colWebsite] = org.Website
	row[colEmail] = org.Email
	row[colSupportData] = org.SupportData
	row[colSpecialStatus] = org.SpecialStatus
	row[colSiteFinal] = org.SiteFinal
	row[colGotMoscowSupport] = fmtBool(org.GotMoscowSupport)
	row[colIsSystemCritical] = fmtBool(org.IsSystemCritical)
	row[colMSPStatus] = org.MSPStatus

	var metrics []models.OrganizationMetric
	if err := db.Where("organization_id = ?", org.ID).Find(&metrics).Error; err != nil {
		return nil, err
	}
	byYear := make(map[int]*models.OrganizationMetric, len(metrics))
	for i := range metrics {
		byYear[metrics[i].Year] = &metrics[i]
	}
	for i, y := range metricYears {
		m := byYear[y]
		if m == nil {
			continue
		}
		row[colRevenueStart+i] = fp(m.Revenue)
		row[colProfitStart+i] = fp(m.Profit)
		row[colTotalEmployeesStart+i] = ip(m.TotalEmployees)
		row[colMoscowEmployeesStart+i] = ip(m.MoscowEmployees)
		row[colTotalFOTStart+i] = fp(m.TotalFOT)
		row[colMoscowFOTStart+i] = fp(m.MoscowFOT)
		row[colAvgSalaryTotalStart+i] = fp(m.AvgSalaryTotal)
		row[colAvgSalaryMoscowStart+i] = fp(m.AvgSalaryMoscow)
	}
	for i, y := range investYears {
		if m := byYear[y]; m != nil {
			row[colInvestmentsStart+i] = fp(m.Investments)
		}
	}
	for i, y := range exportYears {
		if m := byYear[y]; m != nil {
			row[colExportStart+i] = fp(m.ExportVolume)
		}
	}

	var taxes []models.OrganizationTax
	if err := db.Where("organization_id = ?", org.ID).Find(&taxes).Error; err != nil {
		return nil, err
	}
	taxByYear := make(map[int]*models.OrganizationTax, len(taxes))
	for i := range taxes {
		taxByYear[taxes[i].Year] = &taxes[i]
	}
	for i, y := range taxYears {
		t := taxByYear[y]
		if t == nil {
			continue
		}
		row[colTotalTaxesStart+i] = fp(t.TotalTaxesMoscow)
		row[colProfitTaxStart+i] = fp(t.ProfitTax)
		row[colPropertyTaxStart+i] = fp(t.PropertyTax)
		row[colLandTaxStart+i] = fp(t.LandTax)
		row[colNDFLStart+i] = fp(t.NDFL)
		row[colTransportTaxStart+i] = fp(t.TransportTax)
		row[colOtherTaxesStart+i] = fp(t.OtherTaxes)
		row[colExciseStart+i] = fp(t.Excise)
	}

	var assets models.OrganizationAssets
	if err := db.Where("organization_id = ?", org.ID).First(&assets).Error; err == nil {
		row[colPropertySummary] = assets.PropertySummary
		row[colCadastralLand] = assets.CadastralNumberLand
		row[colLandArea] = fp(assets.LandArea)
		row[colLandUsage] = assets.LandUsage
		row[colLandOwnershipType] = assets.LandOwnershipType
		row[colLandOwner] = assets.LandOwner
		row[colCadastralBuilding] = assets.CadastralNumberBuilding
		row[colBuildingArea] = fp(assets.BuildingArea)
		row[colBuildingUsage] = assets.BuildingUsage
		row[colBuildingType] = assets.BuildingType
		row[colBuildingOwnershipType] = assets.BuildingOwnershipType
		row[colBuildingOwner] = assets.BuildingOwner
		row[colProductionArea] = fp(assets.ProductionArea)
	}

	var product models.OrganizationProduct
	if err := db.Where("organization_id = ?", org.ID).First(&product).Error; err == nil {
		row[colProductName] = product.ProductName
		row[colStandardizedProduct] = product.StandardizedProduct
		row[colProductTypes] = product.ProductTypes
		row[colOKPD2Codes] = product.OKPD2Codes
		row[colProductCatalog] = product.ProductCatalog
		row[colHasGovernmentOrders] = fmtBool(product.HasGovernmentOrders)
		row[colCapacityUsage] = product.CapacityUsage
		row[colHasExport] = fmtBool(product.HasExport)
		row[colExportVolumeLast] = fp(product.ExportVolumeLastYear)
		row[colExportCountries] = product.ExportCountries
		row[colTNVEDCode] = product.TNVEDCode
	}

	var meta models.OrganizationMeta
	if err := db.Where("organization_id = ?", org.ID).First(&meta).Error; err == nil {
		row[colRegistryDevelopment] = meta.RegistryDevelopment
		row[colIndustrySpark] = meta.IndustrySpark
		row[colPresentationLinks] = meta.PresentationLinks
	}

	row[colLegalAddressCoords] = org.LegalAddressCoords
	row[colProductionAddressCoords] = org.ProductionAddressCoords
	row[colAdditionalAddressCoords] = org.AdditionalAddressCoords
	row[colCoordinatesLat] = fp(org.CoordinatesLat)
	row[colCoordinatesLon] = fp(org.CoordinatesLon)
	row[colDistrict] = org.District
	row[colRegion] = org.Region

	return row, nil
}

func fmtDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("02.01.2006")
}

func fmtBool(b bool) string {
	if b {
		return "Да"
	}
	return "Нет"
}

func fp(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func ip(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
