package excel

import (
	"errors"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"mosprom-backend/internal/models"
)

// ImportError описывает одну строку, которую не удалось загрузить.
type ImportError struct {
	Row     int    `json:"row"`
	INN     string `json:"inn"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// OrganizationAction фиксирует, что произошло с организацией при импорте.
type OrganizationAction struct {
	INN   string `json:"inn"`
	Name  string `json:"name"`
	IsNew bool   `json:"is_new"`
}

// ImportResult — сводка по загрузке реестра. В ответ попадают не
// более 20 ошибок и не более 50 организаций, чтобы не раздувать JSON.
type ImportResult struct {
	OrganizationsNew     int                  `json:"organizations_new"`
	OrganizationsUpdated int                  `json:"organizations_updated"`
	OrganizationsCount   int                  `json:"organizations_count"`
	RowsProcessed        int                  `json:"rows_processed"`
	RowsSkipped          int                  `json:"rows_skipped"`
	ErrorCount           int                  `json:"errors"`
	ErrorDetails         []ImportError        `json:"error_details"`
	Organizations        []OrganizationAction `json:"organizations_details"`
}

const (
	maxErrorDetails        = 20
	maxOrganizationDetails = 50
)

// ImportWorkbook загружает реестр предприятий из книги Excel.
// Каждая строка обрабатывается в своей транзакции: ошибка в одной
// строке попадает в отчет и не прерывает загрузку остальных.
func ImportWorkbook(db *gorm.DB, f *excelize.File) (*ImportResult, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("в книге нет ни одного листа")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать лист %q: %w", sheets[0], err)
	}

	result := &ImportResult{
		ErrorDetails:  []ImportError{},
		Organizations: []OrganizationAction{},
	}

	for i, row := range rows {
		if i == 0 {
			continue // шапка
		}
		rowNum := i + 1

		inn := cellStr(row, colINN)
		if inn == "" {
			result.RowsSkipped++
			continue
		}
		name := cellStr(row, colName)

		isNew := false
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing models.Organization
			lookupErr := tx.Where("inn = ?", inn).First(&existing).Error
			switch {
			case lookupErr == nil:
				return updateOrganization(tx, &existing, row)
			case errors.Is(lookupErr, gorm.ErrRecordNotFound):
				isNew = true
				return createOrganization(tx, row)
			default:
				return lookupErr
			}
		})
		if err != nil {
			log.Printf("import: row %d (INN %s): %v", rowNum, inn, err)
			result.ErrorCount++
			if len(result.ErrorDetails) < maxErrorDetails {
				result.ErrorDetails = append(result.ErrorDetails, ImportError{
					Row:     rowNum,
					INN:     inn,
					Name:    name,
					Message: err.Error(),
				})
			}
			continue
		}

		result.RowsProcessed++
		if isNew {
			result.OrganizationsNew++
		} else {
			result.OrganizationsUpdated++
		}
		if len(result.Organizations) < maxOrganizationDetails {
			result.Organizations = append(result.Organizations, OrganizationAction{
				INN:   inn,
				Name:  name,
				IsNew: isNew,
			})
		}
	}

	result.OrganizationsCount = result.OrganizationsNew + result.OrganizationsUpdated
	return result, nil
}

func createOrganization(tx *gorm.DB, row []string) error {
	org := organizationFromRow(row)
	if err := tx.Create(org).Error; err != nil {
		return err
	}
	if err := replaceYearRows(tx, org.ID, row); err != nil {
		return err
	}
	if assets := assetsFromRow(row); assets != nil {
		assets.OrganizationID = org.ID
		if err := tx.Create(assets).Error; err != nil {
			return err
		}
	}
	if product := productFromRow(row); product != nil {
		product.OrganizationID = org.ID
		if err := tx.Create(product).Error; err != nil {
			return err
		}
	}
	if meta := metaFromRow(row); meta != nil {
		meta.OrganizationID = org.ID
		if err := tx.Create(meta).Error; err != nil {
			return err
		}
	}
	return nil
}

// updateOrganization обновляет только годовые показатели и блочные
// разделы строки. Карточка организации (реквизиты, адреса, контакты)
// при повторном импорте не трогается.
func updateOrganization(tx *gorm.DB, org *models.Organization, row []string) error {
	if err := replaceYearRows(tx, org.ID, row); err != nil {
		return err
	}
	if assets := assetsFromRow(row); assets != nil {
		if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationAssets{}).Error; err != nil {
			return err
		}
		assets.OrganizationID = org.ID
		if err := tx.Create(assets).Error; err != nil {
			return err
		}
	}
	if product := productFromRow(row); product != nil {
		if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationProduct{}).Error; err != nil {
			return err
		}
		product.OrganizationID = org.ID
		if err := tx.Create(product).Error; err != nil {
			return err
		}
	}
	if meta := metaFromRow(row); meta != nil {
		if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationMeta{}).Error; err != nil {
			return err
		}
		meta.OrganizationID = org.ID
		if err := tx.Create(meta).Error; err != nil {
			return err
		}
	}
	return nil
}

func replaceYearRows(tx *gorm.DB, orgID uint, row []string) error {
	if err := tx.Where("organization_id = ?", orgID).Delete(&models.OrganizationMetric{}).Error; err != nil {
		return err
	}
	if err := tx.Where("organization_id = ?", orgID).Delete(&models.OrganizationTax{}).Error; err != nil {
		return err
	}
	for _, m := range metricsFromRow(row) {
		m.OrganizationID = orgID
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
	}
	for _, t := range taxesFromRow(row) {
		t.OrganizationID = orgID
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
	}
	return nil
}

func organizationFromRow(row []string) *models.Organization {
	return &models.Organization{
		INN:                     cellStr(row, colINN),
		Name:                    cellStr(row, colName),
		FullName:                cellStr(row, colFullName),
		StatusSpark:             cellStr(row, colStatusSpark),
		StatusInternal:          cellStr(row, colStatusInternal),
		StatusFinal:             cellStr(row, colStatusFinal),
		DateAdded:               cellDate(row, colDateAdded),
		LegalAddress:            cellStr(row, colLegalAddress),
		ProductionAddress:       cellStr(row, colProductionAddress),
		AdditionalAddress:       cellStr(row, colAdditionalAddress),
		MainIndustry:            cellStr(row, colMainIndustry),
		MainSubindustry:         cellStr(row, colMainSubindustry),
		ExtraIndustry:           cellStr(row, colExtraIndustry),
		ExtraSubindustry:        cellStr(row, colExtraSubindustry),
		MainOKVED:               cellStr(row, colMainOKVED),
		MainOKVEDName:           cellStr(row, colMainOKVEDName),
		ProdOKVED:               cellStr(row, colProdOKVED),
		ProdOKVEDName:           cellStr(row, colProdOKVEDName),
		CompanyInfo:             cellStr(row, colCompanyInfo),
		CompanySize:             cellStr(row, colCompanySize),
		CompanySize2022:         cellStr(row, colCompanySize2022),
		SizeByEmployees:         cellStr(row, colSizeByEmployees),
		SizeByEmployees2022:     cellStr(row, colSizeByEmployees2022),
		SizeByRevenue:           cellStr(row, colSizeByRevenue),
		SizeByRevenue2022:       cellStr(row, colSizeByRevenue2022),
		RegistrationDate:        cellDate(row, colRegistrationDate),
		HeadName:                cellStr(row, colHeadName),
		ParentOrgName:           cellStr(row, colParentOrgName),
		ParentOrgINN:            cellStr(row, colParentOrgINN),
		ParentRelationType:      cellStr(row, colParentRelationType),
		HeadContacts:            cellStr(row, colHeadContacts),
		HeadEmail:               cellStr(row, colHeadEmail),
		EmployeeContact:         cellStr(row, colEmployeeContact),
		Phone:                   cellStr(row, colPhone),
		EmergencyContact:        cellStr(row, colEmergencyContact),
		Website:                 cellStr(row, colWebsite),
		Email:                   cellStr(row, colEmail),
		SupportData:             cellStr(row, colSupportData),
		SpecialStatus:           cellStr(row, colSpecialStatus),
		SiteFinal:               cellStr(row, colSiteFinal),
		GotMoscowSupport:        cellBool(row, colGotMoscowSupport),
		IsSystemCritical:        cellBool(row, colIsSystemCritical),
		MSPStatus:               cellStr(row, colMSPStatus),
		LegalAddressCoords:      cellStr(row, colLegalAddressCoords),
		ProductionAddressCoords: cellStr(row, colProductionAddressCoords),
		AdditionalAddressCoords: cellStr(row, colAdditionalAddressCoords),
		CoordinatesLat:          cellFloat(row, colCoordinatesLat),
		CoordinatesLon:          cellFloat(row, colCoordinatesLon),
		District:                cellStr(row, colDistrict),
		Region:                  cellStr(row, colRegion),
	}
}

// metricsFromRow собирает годовые показатели. Строка на год создается
// только когда хотя бы одно значение за этот год заполнено.
func metricsFromRow(row []string) []models.OrganizationMetric {
	metrics := make([]models.OrganizationMetric, 0, len(metricYears))
	for i, year := range metricYears {
		m := models.OrganizationMetric{
			Year:            year,
			Revenue:         cellFloat(row, colRevenueStart+i),
			Profit:          cellFloat(row, colProfitStart+i),
			TotalEmployees:  cellInt(row, colTotalEmployeesStart+i),
			MoscowEmployees: cellInt(row, colMoscowEmployeesStart+i),
			TotalFOT:        cellFloat(row, colTotalFOTStart+i),
			MoscowFOT:       cellFloat(row, colMoscowFOTStart+i),
			AvgSalaryTotal:  cellFloat(row, colAvgSalaryTotalStart+i),
			AvgSalaryMoscow: cellFloat(row, colAvgSalaryMoscowStart+i),
		}
		for j, iy := range investYears {
			if iy == year {
				m.Investments = cellFloat(row, colInvestmentsStart+j)
			}
		}
		for j, ey := range exportYears {
			if ey == year {
				m.ExportVolume = cellFloat(row, colExportStart+j)
			}
		}
		if metricHasData(m) {
			metrics = append(metrics, m)
		}
	}
	return metrics
}

func metricHasData(m models.OrganizationMetric) bool {
	return m.Revenue != nil || m.Profit != nil ||
		m.TotalEmployees != nil || m.MoscowEmployees != nil ||
		m.TotalFOT != nil || m.MoscowFOT != nil ||
		m.AvgSalaryTotal != nil || m.AvgSalaryMoscow != nil ||
		m.Investments != nil || m.ExportVolume != nil
}

func taxesFromRow(row []string) []models.OrganizationTax {
	taxes := make([]models.OrganizationTax, 0, len(taxYears))
	for i, year := range taxYears {
		t := models.OrganizationTax{
			Year:             year,
			TotalTaxesMoscow: cellFloat(row, colTotalTaxesStart+i),
			ProfitTax:        cellFloat(row, colProfitTaxStart+i),
			PropertyTax:      cellFloat(row, colPropertyTaxStart+i),
			LandTax:          cellFloat(row, colLandTaxStart+i),
			NDFL:             cellFloat(row, colNDFLStart+i),
			TransportTax:     cellFloat(row, colTransportTaxStart+i),
			OtherTaxes:       cellFloat(row, colOtherTaxesStart+i),
			Excise:           cellFloat(row, colExciseStart+i),
		}
		if taxHasData(t) {
			taxes = append(taxes, t)
		}
	}
	return taxes
}

func taxHasData(t models.OrganizationTax) bool {
	return t.TotalTaxesMoscow != nil || t.ProfitTax != nil ||
		t.PropertyTax != nil || t.LandTax != nil ||
		t.NDFL != nil || t.TransportTax != nil ||
		t.OtherTaxes != nil || t.Excise != nil
}

func assetsFromRow(row []string) *models.OrganizationAssets {
	a := models.OrganizationAssets{
		PropertySummary:         cellStr(row, colPropertySummary),
		CadastralNumberLand:     cellStr(row, colCadastralLand),
		LandArea:                cellFloat(row, colLandArea),
		LandUsage:               cellStr(row, colLandUsage),
		LandOwnershipType:       cellStr(row, colLandOwnershipType),
		LandOwner:               cellStr(row, colLandOwner),
		CadastralNumberBuilding: cellStr(row, colCadastralBuilding),
		BuildingArea:            cellFloat(row, colBuildingArea),
		BuildingUsage:           cellStr(row, colBuildingUsage),
		BuildingType:            cellStr(row, colBuildingType),
		BuildingOwnershipType:   cellStr(row, colBuildingOwnershipType),
		BuildingOwner:           cellStr(row, colBuildingOwner),
		ProductionArea:          cellFloat(row, colProductionArea),
	}
	if a.PropertySummary == "" && a.CadastralNumberLand == "" && a.LandArea == nil &&
		a.LandUsage == "" && a.LandOwnershipType == "" && a.LandOwner == "" &&
		a.CadastralNumberBuilding == "" && a.BuildingArea == nil && a.BuildingUsage == "" &&
		a.BuildingType == "" && a.BuildingOwnershipType == "" && a.BuildingOwner == "" &&
		a.ProductionArea == nil {
		return nil
	}
	return &a
}

func productFromRow(row []string) *models.OrganizationProduct {
	p := models.OrganizationProduct{
		ProductName:          cellStr(row, colProductName),
		StandardizedProduct:  cellStr(row, colStandardizedProduct),
		ProductTypes:         cellStr(row, colProductTypes),
		OKPD2Codes:           cellStr(row, colOKPD2Codes),
		ProductCatalog:       cellStr(row, colProductCatalog),
		HasGovernmentOrders:  cellBool(row, colHasGovernmentOrders),
		CapacityUsage:        cellStr(row, colCapacityUsage),
		HasExport:            cellBool(row, colHasExport),
		ExportVolumeLastYear: cellFloat(row, colExportVolumeLast),
		ExportCountries:      cellStr(row, colExportCountries),
		TNVEDCode:            cellStr(row, colTNVEDCode),
	}
	if p.ProductName == "" && p.StandardizedProduct == "" && p.ProductTypes == "" &&
		p.OKPD2Codes == "" && p.ProductCatalog == "" && !p.HasGovernmentOrders &&
		p.CapacityUsage == "" && !p.HasExport && p.ExportVolumeLastYear == nil &&
		p.ExportCountries == "" && p.TNVEDCode == "" {
		return nil
	}
	return &p
}

func metaFromRow(row []string) *models.OrganizationMeta {
	m := models.OrganizationMeta{
		RegistryDevelopment: cellStr(row, colRegistryDevelopment),
		IndustrySpark:       cellStr(row, colIndustrySpark),
	}
	if m.RegistryDevelopment == "" && m.IndustrySpark == "" {
		return nil
	}
	return &m
}
