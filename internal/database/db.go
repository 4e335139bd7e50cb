package database

import (
	"log"

	"mosprom-backend/internal/config"
	"mosprom-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration complete")
}

// Migrate creates/updates the schema. Shared with tests, which run it
// against an in-memory SQLite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMetric{},
		&models.OrganizationTax{},
		&models.OrganizationAssets{},
		&models.OrganizationProduct{},
		&models.OrganizationMeta{},
		&models.AuditLog{},
	)
}
