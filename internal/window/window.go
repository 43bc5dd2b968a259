// Package window turns date bounds and a vendor card into an order
// selection predicate.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/gorm"
)

// ErrInvalidDate is returned when a date is not a YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a YYYY-MM-DD calendar date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (YYYY-MM-DD expected)", ErrInvalidDate, s)
	}
	return d, nil
}

// StartOfDay returns the first instant of d's calendar day.
func StartOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// EndOfDay returns the last representable instant of d's calendar day.
func EndOfDay(d time.Time) time.Time {
	return StartOfDay(d).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Window is an inclusive date range. A nil bound is open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Parse builds a window from optional date strings. Empty strings leave the
// bound open.
func Parse(start, end string, loc *time.Location) (Window, error) {
	var w Window
	if start != "" {
		d, err := ParseDate(start, loc)
		if err != nil {
			return Window{}, err
		}
		w.Start = &d
	}
	if end != "" {
		d, err := ParseDate(end, loc)
		if err != nil {
			return Window{}, err
		}
		w.End = &d
	}
	return w, nil
}

// Between builds a closed window from two dates.
func Between(start, end time.Time) Window {
	return Window{Start: &start, End: &end}
}

// Reversed reports whether both bounds are set and start is after end.
func (w Window) Reversed() bool {
	return w.Start != nil && w.End != nil && w.Start.After(*w.End)
}

// Normalize swaps reversed bounds.
func (w Window) Normalize() Window {
	if w.Reversed() {
		return Window{Start: w.End, End: w.Start}
	}
	return w
}

// Format renders a bound as YYYY-MM-DD, or "" when open.
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

// Predicate selects orders. Cancelled orders never match.
type Predicate struct {
	VendorCard  string
	PaymentType models.PaymentType
	Window      Window
}

// Build is the single constructor for order predicates. An empty card
// matches every vendor, an empty payment type every payment type.
func Build(vendorCard string, w Window, paymentType models.PaymentType) Predicate {
	return Predicate{VendorCard: vendorCard, PaymentType: paymentType, Window: w}
}

// From returns the inclusive lower instant, or nil when open.
func (p Predicate) From() *time.Time {
	if p.Window.Start == nil {
		return nil
	}
	t := StartOfDay(*p.Window.Start)
	return &t
}

// Until returns the inclusive upper instant (end of day), or nil when open.
func (p Predicate) Until() *time.Time {
	if p.Window.End == nil {
		return nil
	}
	t := EndOfDay(*p.Window.End)
	return &t
}

// Scope applies the predicate to a gorm query over models.Order.
func (p Predicate) Scope(db *gorm.DB) *gorm.DB {
	db = db.Where("state <> ?", models.OrderStateCancelled)
	if p.VendorCard != "" {
		db = db.Where("client_card = ?", p.VendorCard)
	}
	if p.PaymentType != "" {
		db = db.Where("type_paiement = ?", p.PaymentType)
	}
	if from := p.From(); from != nil {
		db = db.Where("date >= ?", from.UTC())
	}
	if until := p.Until(); until != nil {
		db = db.Where("date <= ?", until.UTC())
	}
	return db
}

// Matches evaluates the predicate in memory.
func (p Predicate) Matches(o *models.Order) bool {
	if o.IsCancelled() {
		return false
	}
	if p.VendorCard != "" && o.VendorCard != p.VendorCard {
		return false
	}
	if p.PaymentType != "" && o.PaymentType != p.PaymentType {
		return false
	}
	if from := p.From(); from != nil && o.Date.Before(*from) {
		return false
	}
	if until := p.Until(); until != nil && o.Date.After(*until) {
		return false
	}
	return true
}
