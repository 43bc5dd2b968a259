package db

import (
	"fmt"

	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for every table the payroll core touches. The
// vendor and order tables belong to external systems; they are migrated
// here so dev and test databases are self-contained.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Permission{},
		&models.Profile{},
		&models.User{},
		&models.Vendor{},
		&models.Order{},
		&models.Period{},
		&models.PeriodLine{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
