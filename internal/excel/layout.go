package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fixed 0-based column positions of the registry workbook. The upstream
// spreadsheet has no stable header names, so both import and export are
// keyed by position. Any reordering upstream has to be mirrored here.
const (
	colRowNum = 0
	colINN    = 1
	colName   = 2

	colFullName            = 3
	colStatusSpark         = 4
	colStatusInternal      = 5
	colStatusFinal         = 6
	colDateAdded           = 7
	colLegalAddress        = 8
	colProductionAddress   = 9
	colAdditionalAddress   = 10
	colMainIndustry        = 11
	colMainSubindustry     = 12
	colExtraIndustry       = 13
	colExtraSubindustry    = 14
	colPresentationLinks   = 15
	colMainOKVED           = 16
	colMainOKVEDName       = 17
	colProdOKVED           = 18
	colProdOKVEDName       = 19
	colCompanyInfo         = 20
	colCompanySize         = 21
	colCompanySize2022     = 22
	colSizeByEmployees     = 23
	colSizeByEmployees2022 = 24
	colSizeByRevenue       = 25
	colSizeByRevenue2022   = 26
	colRegistrationDate    = 27
	colHeadName            = 28
	colParentOrgName       = 29
	colParentOrgINN        = 30
	colParentRelationType  = 31
	colHeadContacts        = 32
	colHeadEmail           = 33
	colEmployeeContact     = 34
	colPhone               = 35
	colEmergencyContact    = 36
	colWebsite             = 37
	colEmail               = 38
	colSupportData         = 39
	colSpecialStatus       = 40
	colSiteFinal           = 41
	colGotMoscowSupport    = 42
	colIsSystemCritical    = 43
	colMSPStatus           = 44

	// Seven-column year blocks, 2017-2023
	colRevenueStart         = 47
	colProfitStart          = 54
	colTotalEmployeesStart  = 61
	colMoscowEmployeesStart = 68
	colTotalFOTStart        = 75
	colMoscowFOTStart       = 82
	colAvgSalaryTotalStart  = 89
	colAvgSalaryMoscowStart = 96

	// Eight-column tax year blocks, 2017-2024
	colTotalTaxesStart   = 103
	colProfitTaxStart    = 111
	colPropertyTaxStart  = 119
	colLandTaxStart      = 127
	colNDFLStart         = 135
	colTransportTaxStart = 143
	colOtherTaxesStart   = 151
	colExciseStart       = 159

	colInvestmentsStart = 167 // 2021-2023
	colExportStart      = 170 // 2019-2023

	colPropertySummary       = 175
	colCadastralLand         = 176
	colLandArea              = 177
	colLandUsage             = 178
	colLandOwnershipType     = 179
	colLandOwner             = 180
	colCadastralBuilding     = 181
	colBuildingArea          = 182
	colBuildingUsage         = 183
	colBuildingType          = 184
	colBuildingOwnershipType = 185
	colBuildingOwner         = 186
	colProductionArea        = 187

	colProductName         = 188
	colStandardizedProduct = 189
	colProductTypes        = 190
	colOKPD2Codes          = 191
	colProductCatalog      = 193
	colHasGovernmentOrders = 194
	colCapacityUsage       = 195
	colHasExport           = 196
	colExportVolumeLast    = 197
	colExportCountries     = 198
	colTNVEDCode           = 199

	colRegistryDevelopment     = 200
	colIndustrySpark           = 201
	colLegalAddressCoords      = 202
	colProductionAddressCoords = 203
	colAdditionalAddressCoords = 204
	colCoordinatesLat          = 205
	colCoordinatesLon          = 206
	colDistrict                = 207
	colRegion                  = 208

	columnCount = 209
)

const sheetName = "Предприятия"

func yearRange(from, to int) []int {
	ys := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		ys = append(ys, y)
	}
	return ys
}

var (
	metricYears = yearRange(2017, 2023)
	taxYears    = yearRange(2017, 2024)
	investYears = yearRange(2021, 2023)
	exportYears = yearRange(2019, 2023)
)

var dateFormats = []string{"02.01.2006", "2006-01-02", "02/01/2006"}

// cellStr returns the trimmed cell value or "" when the row is short.
// GetRows drops trailing empty cells, so short rows are the norm.
func cellStr(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellFloat(row []string, idx int) *float64 {
	s := cellStr(row, idx)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func cellInt(row []string, idx int) *int {
	f := cellFloat(row, idx)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func cellBool(row []string, idx int) bool {
	s := strings.ToLower(cellStr(row, idx))
	switch s {
	case "да", "yes", "true", "1", "+":
		return true
	}
	return false
}

func cellDate(row []string, idx int) *time.Time {
	s := cellStr(row, idx)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// headerRow builds the full 209-column header, matching the source
// workbook layout column for column.
func headerRow() []string {
	headers := []string{
		"№",
		"ИНН",
		"Наименование организации",
		"Полное наименование организации",
		"Статус СПАРК",
		"Статус внутренний",
		"Статус ИТОГ",
		"Дата добавления в реестр",
		"Юридический адрес",
		"Адрес производства",
		"Адрес дополнительной площадки",
		"Основная отрасль",
		"Подотрасль (Основная)",
		"Дополнительная отрасль",
		"Подотрасль (Дополнительная)",
		"Отраслевые презентации",
		"Основной ОКВЭД (СПАРК)",
		"Вид деятельности по основному ОКВЭД (СПАРК)",
		"Производственный ОКВЭД",
		"Вид деятельности по производственному ОКВЭД",
		"Общие сведения об организации",
		"Размер предприятия (итог)",
		"Размер предприятия (итог) 2022",
		"Размер предприятия (по численности)",
		"Размер предприятия (по численности) 2022",
		"Размер предприятия (по выручке)",
		"Размер предприятия (по выручке) 2022",
		"Дата регистрации",
		"Руководитель",
		"Головная организация",
		"ИНН головной организации",
		"Вид отношения головной организации",
		"Контактные данные руководства",
		"Почта руководства",
		"Контакт сотрудника организации",
		"Номер телефона",
		"Контактные данные ответственного по ЧС",
		"Сайт",
		"Электронная почта",
		"Данные о мерах поддержки",
		"Наличие особого статуса",
		"Площадка итог",
		"Получена поддержка от г. Москвы",
		"Системообразующее предприятие",
		"Статус МСП",
		"То самое",
		"Финансово-экономические показатели",
	}

	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Выручка предприятия, тыс. руб. %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Чистая прибыль (убыток),тыс. руб. %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Среднесписочная численность персонала (всего по компании), чел %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Среднесписочная численность персонала, работающего в Москве, чел %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Фонд оплаты труда всех сотрудников организации, тыс. руб %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Фонд оплаты труда сотрудников, работающих в Москве, тыс. руб %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Средняя з.п. всех сотрудников организации, тыс.руб. %d", y))
	}
	for _, y := range metricYears {
		headers = append(headers, fmt.Sprintf("Средняя з.п. сотрудников, работающих в Москве, тыс.руб. %d", y))
	}

	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Налоги, уплаченные в бюджет Москвы (без акцизов), тыс.руб. %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Налог на прибыль, тыс.руб. %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Налог на имущество, тыс.руб. %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Налог на землю, тыс.руб. %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("НДФЛ, тыс.руб. %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Транспортный налог, тыс.руб. %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Прочие налоги %d", y))
	}
	for _, y := range taxYears {
		headers = append(headers, fmt.Sprintf("Акцизы, тыс. руб. %d", y))
	}

	for _, y := range investYears {
		headers = append(headers, fmt.Sprintf("Инвестиции в Мск %d тыс. руб.", y))
	}
	for _, y := range exportYears {
		headers = append(headers, fmt.Sprintf("Объем экспорта, тыс. руб. %d", y))
	}

	headers = append(headers,
		"Имущественно-земельный комплекс",
		"Кадастровый номер ЗУ",
		"Площадь ЗУ",
		"Вид разрешенного использования ЗУ",
		"Вид собственности ЗУ",
		"Собственник ЗУ",
		"Кадастровый номер ОКСа",
		"Площадь ОКСов",
		"Вид разрешенного использования ОКСов",
		"Тип строения и цель использования",
		"Вид собственности ОКСов",
		"СобственникОКСов",
		"Площадь производственных помещений, кв.м.",
	)

	headers = append(headers,
		"Производимая продукция",
		"Стандартизированная продукция",
		"Название (виды производимой продукции)",
		"Перечень производимой продукции по кодам ОКПД 2",
		"Перечень производимой продукции по типам и сегментам",
		"Каталог продукции",
		"Наличие госзаказа",
		"Уровень загрузки производственных мощностей",
		"Наличие поставок продукции на экспорт",
		"Объем экспорта (млн.руб.) за предыдущий календарный год",
		"Перечень государств куда экспортируется продукция",
		"Код ТН ВЭД ЕАЭС",
	)

	headers = append(headers,
		"Развитие Реестра",
		"Отрасль промышленности по Спарк и Справочнику",
		"Координаты юридического адреса",
		"Координаты адреса производства",
		"Координаты адреса дополнительной площадки",
		"Координаты (широта)",
		"Координаты (долгота)",
		"Округ",
		"Район",
	)

	return headers
}
