package models

import "time"

// PaymentType tags how an order was paid.
type PaymentType string

const (
	// PaymentVoucher ("BP") orders were already collected by the vendor
	// and are subtracted from the commission owed.
	PaymentVoucher PaymentType = "bp"
	PaymentCash    PaymentType = "cash"
	PaymentCard    PaymentType = "card"
)

// OrderState is the ledger lifecycle state of an order.
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStateDone      OrderState = "done"
	OrderStateCancelled OrderState = "annule"
)

// Order is a completed sale from the external order ledger. Read-only here.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:100" json:"name"`
	VendorCard  string      `gorm:"column:client_card;size:64;index" json:"client_card"`
	Total       int64       `gorm:"not null;default:0" json:"total"`
	PaymentType PaymentType `gorm:"column:type_paiement;size:20;index" json:"type_paiement"`
	State       OrderState  `gorm:"size:20;index" json:"state"`
	Date        time.Time   `gorm:"index;not null" json:"date"`
}

// TableName maps the ledger table.
func (Order) TableName() string { return "pos_orders" }

// IsVoucher reports whether the order was paid by voucher.
func (o *Order) IsVoucher() bool { return o.PaymentType == PaymentVoucher }

// IsCancelled reports whether the order is excluded from every aggregate.
func (o *Order) IsCancelled() bool { return o.State == OrderStateCancelled }
