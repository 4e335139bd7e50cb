package organization

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/config"
	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
)

// Встроенный LOWER в SQLite понимает только ASCII, а поиск по реестру
// почти всегда кириллический. Для тестов регистрируем свой lower.
var registerUnicodeSQLite = sync.OnceFunc(func() {
	sql.Register("sqlite3_unicode", &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
})

func setupTestDB(t *testing.T) {
	t.Helper()
	registerUnicodeSQLite()
	db, err := gorm.Open(&sqlite.Dialector{
		DriverName: "sqlite3_unicode",
		DSN:        ":memory:",
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db
}

func testApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	cacheClient := cache.New(&config.Config{CacheDisabled: true})
	app.Post("/api/organizations", CreateOrganizationHandler(cacheClient))
	app.Delete("/api/organizations/:id", DeleteOrganizationHandler(cacheClient))
	app.Post("/api/organizations/:id/edit-full", UpdateOrganizationFullHandler(cacheClient))
	return app
}

func TestCreateOrganization(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	req := httptest.NewRequest("POST", "/api/organizations",
		strings.NewReader(`{"inn":"7707083893","name":"Завод Точмаш","district":"ЮВАО"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "7707083893", payload["inn"])

	var org models.Organization
	require.NoError(t, database.DB.Where("inn = ?", "7707083893").First(&org).Error)
	assert.Equal(t, "Завод Точмаш", org.Name)
	assert.Equal(t, "ЮВАО", org.District)
}

func TestCreateOrganizationRequiresINNAndName(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	for _, body := range []string{
		`{"name":"Без ИНН"}`,
		`{"inn":"7707083893"}`,
		`{"inn":"  ","name":"Пробелы"}`,
	} {
		req := httptest.NewRequest("POST", "/api/organizations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestCreateOrganizationDuplicateINN(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	require.NoError(t, database.DB.Create(&models.Organization{
		INN: "7707083893", Name: "Существующее",
	}).Error)

	req := httptest.NewRequest("POST", "/api/organizations",
		strings.NewReader(`{"inn":"7707083893","name":"Дубликат"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "уже существует")
}

func TestDeleteOrganizationCascades(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	org := models.Organization{INN: "7707083893", Name: "Завод"}
	require.NoError(t, database.DB.Create(&org).Error)

	revenue := 100.0
	require.NoError(t, database.DB.Create(&models.OrganizationMetric{
		OrganizationID: org.ID, Year: 2023, Revenue: &revenue,
	}).Error)
	require.NoError(t, database.DB.Create(&models.OrganizationTax{
		OrganizationID: org.ID, Year: 2023, TotalTaxesMoscow: &revenue,
	}).Error)
	require.NoError(t, database.DB.Create(&models.OrganizationAssets{
		OrganizationID: org.ID, PropertySummary: "Участок",
	}).Error)
	require.NoError(t, database.DB.Create(&models.OrganizationProduct{
		OrganizationID: org.ID, ProductName: "Редукторы",
	}).Error)
	require.NoError(t, database.DB.Create(&models.OrganizationMeta{
		OrganizationID: org.ID, IndustrySpark: "Машиностроение",
	}).Error)

	req := httptest.NewRequest("DELETE", "/api/organizations/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var orgCount int64
	database.DB.Model(&models.Organization{}).Count(&orgCount)
	assert.Equal(t, int64(0), orgCount)

	for _, model := range []any{
		&models.OrganizationMetric{},
		&models.OrganizationTax{},
		&models.OrganizationAssets{},
		&models.OrganizationProduct{},
		&models.OrganizationMeta{},
	} {
		var count int64
		database.DB.Model(model).Where("organization_id = ?", org.ID).Count(&count)
		assert.Equal(t, int64(0), count, "дочерние записи должны удаляться вместе с организацией")
	}
}

func TestUpdateFullPersistsSizeSnapshotFields(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	require.NoError(t, database.DB.Create(&models.Organization{
		INN: "7707083893", Name: "Завод",
	}).Error)

	req := httptest.NewRequest("POST", "/api/organizations/1/edit-full",
		strings.NewReader(`{"general":{
			"company_size_2022":"Крупное",
			"size_by_employees_2022":"Среднее",
			"size_by_revenue_2022":"Крупное"
		}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var org models.Organization
	require.NoError(t, database.DB.First(&org, 1).Error)
	assert.Equal(t, "Крупное", org.CompanySize2022)
	assert.Equal(t, "Среднее", org.SizeByEmployees2022)
	assert.Equal(t, "Крупное", org.SizeByRevenue2022)

	var viaSQL []string
	require.NoError(t, database.DB.Model(&models.Organization{}).
		Where("company_size_2022 = ?", "Крупное").
		Pluck("size_by_revenue_2022", &viaSQL).Error)
	assert.Equal(t, []string{"Крупное"}, viaSQL)
}

func TestDeleteOrganizationNotFound(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	req := httptest.NewRequest("DELETE", "/api/organizations/999", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
