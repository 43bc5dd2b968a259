// Package testutil holds sqlite-backed fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-payroll/internal/db"
	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory sqlite database private to the test, with
// foreign keys enforced, migrated and seeded.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps the shared in-memory database alive and
	// the foreign_keys pragma applied
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return conn
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At returns a UTC instant.
func At(y int, m time.Month, d, hh, mm, ss, nsec int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, nsec, time.UTC)
}

// CreateVendor inserts a registry vendor. percent is the stored commission
// percentage (0 for unset).
func CreateVendor(t *testing.T, conn *gorm.DB, name, card string, percent float64) models.Vendor {
	t.Helper()
	v := models.Vendor{Name: name, CardNumber: card, CommissionRate: percent}
	if err := conn.Create(&v).Error; err != nil {
		t.Fatalf("vendor %s: %v", card, err)
	}
	return v
}

// CreateOrder inserts a ledger order in state done.
func CreateOrder(t *testing.T, conn *gorm.DB, card string, total int64, pt models.PaymentType, at time.Time) models.Order {
	t.Helper()
	return CreateOrderState(t, conn, card, total, pt, models.OrderStateDone, at)
}

// CreateOrderState inserts a ledger order with an explicit state.
func CreateOrderState(t *testing.T, conn *gorm.DB, card string, total int64, pt models.PaymentType, state models.OrderState, at time.Time) models.Order {
	t.Helper()
	var n int64
	conn.Model(&models.Order{}).Count(&n)
	o := models.Order{
		Name:        fmt.Sprintf("CMD/%04d", n+1),
		VendorCard:  card,
		Total:       total,
		PaymentType: pt,
		State:       state,
		Date:        at.UTC(),
	}
	if err := conn.Create(&o).Error; err != nil {
		t.Fatalf("order: %v", err)
	}
	return o
}

// CreateUser inserts a user holding the named seeded profile ("" for none).
func CreateUser(t *testing.T, conn *gorm.DB, email, profile string) models.User {
	t.Helper()
	u := models.User{Email: email, Name: email}
	if profile != "" {
		var p models.Profile
		if err := conn.Where("name = ?", profile).First(&p).Error; err != nil {
			t.Fatalf("profile %s: %v", profile, err)
		}
		u.ProfileID = &p.ID
	}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return u
}
