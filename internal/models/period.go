package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire and in names.
const DateLayout = "2006-01-02"

// Period is a named, date-bounded payroll snapshot. Lines are rebuilt from
// the order ledger on every recompute.
type Period struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string    `gorm:"size:255;not null" json:"name"`
	DateStart time.Time `gorm:"column:date_debut;not null;index" json:"date_debut"`
	DateEnd   time.Time `gorm:"column:date_fin;not null" json:"date_fin"`

	Lines []PeriodLine `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"lignes,omitempty"`
}

// TableName keeps payroll tables grouped.
func (Period) TableName() string { return "payroll_periods" }

// DefaultPeriodName builds the name used when none is supplied.
func DefaultPeriodName(start, end string) string {
	return fmt.Sprintf("Paie %s → %s", start, end)
}

// PeriodTotals is the roll-up of every line of a period.
type PeriodTotals struct {
	Vendors    int
	Gross      decimal.Decimal
	Voucher    decimal.Decimal
	Commission decimal.Decimal
	NetPayable decimal.Decimal
}

// Totals sums the loaded lines.
func (p *Period) Totals() PeriodTotals {
	t := PeriodTotals{Vendors: len(p.Lines)}
	for _, l := range p.Lines {
		t.Gross = t.Gross.Add(l.GrossTotal)
		t.Voucher = t.Voucher.Add(l.VoucherTotal)
		t.Commission = t.Commission.Add(l.Commission)
		t.NetPayable = t.NetPayable.Add(l.NetPayable)
	}
	return t
}

// PeriodLine holds one vendor's aggregate inside a period. At most one line
// exists per (period, vendor); deleting either parent removes the line.
type PeriodLine struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PeriodID uint `gorm:"not null;uniqueIndex:idx_period_vendor" json:"periode_id"`

	VendorID uint    `gorm:"not null;uniqueIndex:idx_period_vendor;index" json:"vendeur_id"`
	Vendor   *Vendor `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"vendeur,omitempty"`

	OrderCount   int             `gorm:"column:nb_commandes;not null;default:0" json:"nb_commandes"`
	GrossTotal   decimal.Decimal `gorm:"column:total_commandes;type:decimal(18,4);not null" json:"total_commandes"`
	VoucherTotal decimal.Decimal `gorm:"column:total_bp;type:decimal(18,4);not null" json:"total_bp"`
	// Rate is the applied fraction (0.25 == 25%).
	Rate       decimal.Decimal `gorm:"column:pourcentage;type:decimal(9,6);not null" json:"pourcentage"`
	Commission decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"commission"`
	NetPayable decimal.Decimal `gorm:"column:montant_net;type:decimal(18,4);not null" json:"montant_net"`
}

// TableName keeps payroll tables grouped.
func (PeriodLine) TableName() string { return "payroll_period_lines" }
