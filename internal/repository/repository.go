// Package repository is the only place that talks to the order ledger, the
// vendor registry and the payroll period tables. Services receive these
// repositories at construction; nothing reaches the database around them.
package repository

import (
	"context"

	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/window"
	"gorm.io/gorm"
)

// OrderSource reads the external order ledger.
type OrderSource interface {
	Find(ctx context.Context, p window.Predicate) ([]models.Order, error)
}

// VendorRegistry reads the external vendor registry.
type VendorRegistry interface {
	// List returns vendors in registry order (by id). limit <= 0 means all.
	List(ctx context.Context, limit int) ([]models.Vendor, error)
	ByCard(ctx context.Context, card string) (*models.Vendor, error)
	// ByCards resolves a set of cards in one query, keyed by card.
	ByCards(ctx context.Context, cards []string) (map[string]models.Vendor, error)
}

// PeriodStore persists payroll periods and their lines.
type PeriodStore interface {
	Create(ctx context.Context, p *models.Period) error
	Get(ctx context.Context, id uint) (*models.Period, error)
	List(ctx context.Context, limit, offset int) ([]models.Period, int64, error)
	IDs(ctx context.Context) ([]uint, error)
	// ReplaceLines deletes every line of the period and inserts lines, in
	// one transaction.
	ReplaceLines(ctx context.Context, periodID uint, lines []models.PeriodLine) error
	Delete(ctx context.Context, id uint) error
}

// Repositories groups the gorm-backed implementations.
type Repositories struct {
	Orders  *OrderRepository
	Vendors *VendorRepository
	Periods *PeriodRepository
}

// NewRepositories builds every repository on one connection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Orders:  NewOrderRepository(db),
		Vendors: NewVendorRepository(db),
		Periods: NewPeriodRepository(db),
	}
}
