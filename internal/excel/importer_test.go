package excel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func setCell(t *testing.T, f *excelize.File, col0, row int, value any) {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col0+1, row)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", cell, value))
}

func newWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	setCell(t, f, colINN, 1, "ИНН")
	setCell(t, f, colName, 1, "Наименование организации")
	return f
}

func TestImportWorkbookCreatesOrganization(t *testing.T) {
	db := setupTestDB(t)
	f := newWorkbook(t)

	setCell(t, f, colINN, 2, "7707083893")
	setCell(t, f, colName, 2, "Завод Точмаш")
	setCell(t, f, colFullName, 2, "АО Завод Точмаш")
	setCell(t, f, colStatusFinal, 2, "Действующее")
	setCell(t, f, colMainIndustry, 2, "Машиностроение")
	setCell(t, f, colGotMoscowSupport, 2, "Да")
	setCell(t, f, colDistrict, 2, "ЮВАО")
	setCell(t, f, colRevenueStart, 2, 1500.5)       // 2017
	setCell(t, f, colRevenueStart+6, 2, 2900)       // 2023
	setCell(t, f, colTotalEmployeesStart+6, 2, 250) // 2023
	setCell(t, f, colInvestmentsStart, 2, 120)      // 2021
	setCell(t, f, colTotalTaxesStart+7, 2, 48.5)    // 2024
	setCell(t, f, colPropertySummary, 2, "Собственный участок")
	setCell(t, f, colProductName, 2, "Редукторы")
	setCell(t, f, colRegistryDevelopment, 2, "В работе")

	result, err := ImportWorkbook(db, f)
	require.NoError(t, err)

	assert.Equal(t, 1, result.OrganizationsNew)
	assert.Equal(t, 0, result.OrganizationsUpdated)
	assert.Equal(t, 1, result.RowsProcessed)
	assert.Equal(t, 0, result.ErrorCount)

	var org models.Organization
	require.NoError(t, db.Where("inn = ?", "7707083893").First(&org).Error)
	assert.Equal(t, "Завод Точмаш", org.Name)
	assert.Equal(t, "АО Завод Точмаш", org.FullName)
	assert.Equal(t, "Машиностроение", org.MainIndustry)
	assert.True(t, org.GotMoscowSupport)
	assert.Equal(t, "ЮВАО", org.District)

	var metrics []models.OrganizationMetric
	require.NoError(t, db.Where("organization_id = ?", org.ID).Order("year").Find(&metrics).Error)
	require.Len(t, metrics, 3)

	assert.Equal(t, 2017, metrics[0].Year)
	require.NotNil(t, metrics[0].Revenue)
	assert.InDelta(t, 1500.5, *metrics[0].Revenue, 0.001)

	assert.Equal(t, 2021, metrics[1].Year)
	require.NotNil(t, metrics[1].Investments)
	assert.InDelta(t, 120, *metrics[1].Investments, 0.001)
	assert.Nil(t, metrics[1].Revenue)

	assert.Equal(t, 2023, metrics[2].Year)
	require.NotNil(t, metrics[2].TotalEmployees)
	assert.Equal(t, 250, *metrics[2].TotalEmployees)

	var taxes []models.OrganizationTax
	require.NoError(t, db.Where("organization_id = ?", org.ID).Find(&taxes).Error)
	require.Len(t, taxes, 1)
	assert.Equal(t, 2024, taxes[0].Year)
	require.NotNil(t, taxes[0].TotalTaxesMoscow)
	assert.InDelta(t, 48.5, *taxes[0].TotalTaxesMoscow, 0.001)

	var assetsCount, productsCount, metaCount int64
	db.Model(&models.OrganizationAssets{}).Where("organization_id = ?", org.ID).Count(&assetsCount)
	db.Model(&models.OrganizationProduct{}).Where("organization_id = ?", org.ID).Count(&productsCount)
	db.Model(&models.OrganizationMeta{}).Where("organization_id = ?", org.ID).Count(&metaCount)
	assert.Equal(t, int64(1), assetsCount)
	assert.Equal(t, int64(1), productsCount)
	assert.Equal(t, int64(1), metaCount)
}

func TestImportWorkbookSkipsRowsWithoutINN(t *testing.T) {
	db := setupTestDB(t)
	f := newWorkbook(t)

	setCell(t, f, colName, 2, "Без ИНН")
	setCell(t, f, colINN, 3, "7707083893")
	setCell(t, f, colName, 3, "С ИНН")

	result, err := ImportWorkbook(db, f)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowsSkipped)
	assert.Equal(t, 1, result.RowsProcessed)
	assert.Equal(t, 1, result.OrganizationsNew)

	var count int64
	db.Model(&models.Organization{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestImportWorkbookUpdatesExistingByINN(t *testing.T) {
	db := setupTestDB(t)

	org := models.Organization{
		INN:   "7707083893",
		Name:  "Старое название",
		Phone: "+7 495 000-00-00",
	}
	require.NoError(t, db.Create(&org).Error)
	oldRevenue := 100.0
	require.NoError(t, db.Create(&models.OrganizationMetric{
		OrganizationID: org.ID,
		Year:           2017,
		Revenue:        &oldRevenue,
	}).Error)

	f := newWorkbook(t)
	setCell(t, f, colINN, 2, "7707083893")
	setCell(t, f, colName, 2, "Новое название")
	setCell(t, f, colRevenueStart+1, 2, 777) // 2018

	result, err := ImportWorkbook(db, f)
	require.NoError(t, err)

	assert.Equal(t, 0, result.OrganizationsNew)
	assert.Equal(t, 1, result.OrganizationsUpdated)

	// Карточка при повторном импорте не перезаписывается
	var updated models.Organization
	require.NoError(t, db.First(&updated, org.ID).Error)
	assert.Equal(t, "Старое название", updated.Name)
	assert.Equal(t, "+7 495 000-00-00", updated.Phone)

	// Годовые показатели заменяются целиком
	var metrics []models.OrganizationMetric
	require.NoError(t, db.Where("organization_id = ?", org.ID).Find(&metrics).Error)
	require.Len(t, metrics, 1)
	assert.Equal(t, 2018, metrics[0].Year)
	require.NotNil(t, metrics[0].Revenue)
	assert.InDelta(t, 777, *metrics[0].Revenue, 0.001)
}

func TestImportWorkbookDuplicateINNWithinWorkbook(t *testing.T) {
	db := setupTestDB(t)
	f := newWorkbook(t)

	setCell(t, f, colINN, 2, "7707083893")
	setCell(t, f, colName, 2, "Первое")
	setCell(t, f, colINN, 3, "7707083893")
	setCell(t, f, colName, 3, "Дубликат")
	setCell(t, f, colINN, 4, "5003052454")
	setCell(t, f, colName, 4, "Второе")

	result, err := ImportWorkbook(db, f)
	require.NoError(t, err)

	// повторная строка с тем же ИНН идет по ветке обновления
	assert.Equal(t, 2, result.OrganizationsNew)
	assert.Equal(t, 1, result.OrganizationsUpdated)
	assert.Equal(t, 0, result.ErrorCount)

	var count int64
	db.Model(&models.Organization{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestImportExportRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	f := newWorkbook(t)

	setCell(t, f, colINN, 2, "7707083893")
	setCell(t, f, colName, 2, "Завод Точмаш")
	setCell(t, f, colStatusFinal, 2, "Действующее")
	setCell(t, f, colIsSystemCritical, 2, "Да")
	setCell(t, f, colRevenueStart+6, 2, 2900) // 2023
	setCell(t, f, colExportStart+4, 2, 55)    // 2023
	setCell(t, f, colTotalTaxesStart, 2, 10)  // 2017

	_, err := ImportWorkbook(db, f)
	require.NoError(t, err)

	var orgs []models.Organization
	require.NoError(t, db.Find(&orgs).Error)
	exported, err := BuildWorkbook(db, orgs)
	require.NoError(t, err)

	// Повторный импорт выгруженной книги в чистую базу
	db2 := setupTestDB(t)
	_, err = ImportWorkbook(db2, exported)
	require.NoError(t, err)

	var org models.Organization
	require.NoError(t, db2.Where("inn = ?", "7707083893").First(&org).Error)
	assert.Equal(t, "Завод Точмаш", org.Name)
	assert.Equal(t, "Действующее", org.StatusFinal)
	assert.True(t, org.IsSystemCritical)

	var metric models.OrganizationMetric
	require.NoError(t, db2.Where("organization_id = ? AND year = ?", org.ID, 2023).First(&metric).Error)
	require.NotNil(t, metric.Revenue)
	assert.InDelta(t, 2900, *metric.Revenue, 0.001)
	require.NotNil(t, metric.ExportVolume)
	assert.InDelta(t, 55, *metric.ExportVolume, 0.001)

	var tax models.OrganizationTax
	require.NoError(t, db2.Where("organization_id = ? AND year = ?", org.ID, 2017).First(&tax).Error)
	require.NotNil(t, tax.TotalTaxesMoscow)
	assert.InDelta(t, 10, *tax.TotalTaxesMoscow, 0.001)
}

func TestCellHelpers(t *testing.T) {
	row := []string{"", "7707083893", " Завод ", "1 500,5", "да", "01.02.2023"}

	assert.Equal(t, "7707083893", cellStr(row, 1))
	assert.Equal(t, "Завод", cellStr(row, 2))
	assert.Equal(t, "", cellStr(row, 99), "короткая строка не должна падать")

	v := cellFloat(row, 3)
	require.NotNil(t, v)
	assert.InDelta(t, 1500.5, *v, 0.001)
	assert.Nil(t, cellFloat(row, 2))

	assert.True(t, cellBool(row, 4))
	assert.False(t, cellBool(row, 0))

	d := cellDate(row, 5)
	require.NotNil(t, d)
	assert.Equal(t, fmt.Sprintf("%04d-%02d-%02d", 2023, 2, 1), d.Format("2006-01-02"))
}
