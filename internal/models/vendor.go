package models

import "time"

// Vendor is a salesperson from the vendor registry. The payroll core only
// reads vendors; CardNumber is the join key into orders.
type Vendor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `gorm:"size:255;not null" json:"name"`
	CardNumber string `gorm:"size:64;uniqueIndex;not null" json:"carte_numero"`

	// CommissionRate is a percentage (25 == 25%). Zero means not set.
	CommissionRate float64 `gorm:"type:decimal(5,2);default:0" json:"pourcentage_commission"`
}

// TableName maps the registry table.
func (Vendor) TableName() string { return "pos_vendors" }

// DisplayName returns the name shown on reports and payout memos.
func (v *Vendor) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.CardNumber
}

// PayrollVendor composes a registry vendor with the payroll-only fields of
// one computation window.
type PayrollVendor struct {
	Vendor
	DateStart time.Time
	DateEnd   time.Time
	// RatePercent overrides Vendor.CommissionRate when > 0.
	RatePercent float64
}

// EffectivePercent returns the override when set, then the vendor's own
// rate. Zero means neither is set and the caller falls back to the default.
func (p *PayrollVendor) EffectivePercent() float64 {
	if p.RatePercent > 0 {
		return p.RatePercent
	}
	return p.CommissionRate
}
