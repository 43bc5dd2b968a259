package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-payroll/internal/commission"
	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/repository"
	"github.com/diewo77/go-payroll/internal/window"
	"github.com/diewo77/go-payroll/validation"
	"github.com/shopspring/decimal"
)

// DefaultVendorLimit caps list_vendors when no limit is given.
const DefaultVendorLimit = 50

// Aggregator computes stateless, per-request commission aggregates straight
// from the order ledger. Nothing it computes is persisted.
type Aggregator struct {
	orders  repository.OrderSource
	vendors repository.VendorRegistry
	loc     *time.Location
	log     *slog.Logger
}

func NewAggregator(orders repository.OrderSource, vendors repository.VendorRegistry, loc *time.Location, log *slog.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		orders:  orders,
		vendors: vendors,
		loc:     loc,
		log:     log.With("service", "aggregator"),
	}
}

// ParseRate reads an API rate, a fraction where 0.25 means 25%. Empty input
// yields the default rate.
func ParseRate(raw string) (commission.Rate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return commission.Default(), nil
	}
	f, err := parseFinite(raw)
	if err != nil {
		return commission.Rate{}, err
	}
	return commission.FromFraction(f), nil
}

// parseFinite reads a rate number and rejects NaN and infinities.
func parseFinite(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRate, raw)
	}
	return f, nil
}

// ListVendorsInput carries list_vendors parameters.
type ListVendorsInput struct {
	Limit      int
	DateStart  string
	DateEnd    string
	WithTotals bool
	Rate       string
}

// VendorSummary is one vendor's figures for a window.
type VendorSummary struct {
	Vendor       models.Vendor
	VoucherTotal decimal.Decimal
	VoucherCount int
	// Set only when totals were requested.
	HasTotals  bool
	GrossTotal decimal.Decimal
	Commission decimal.Decimal
	NetPayable decimal.Decimal
}

// VendorList is the list_vendors result.
type VendorList struct {
	Vendors []VendorSummary
	Window  window.Window
}

// ListVendors always reports voucher totals; gross, commission and net are
// added when WithTotals is set.
func (a *Aggregator) ListVendors(ctx context.Context, in ListVendorsInput) (*VendorList, error) {
	var rate commission.Rate
	if in.WithTotals {
		r, err := ParseRate(in.Rate)
		if err != nil {
			return nil, err
		}
		rate = r
	}
	w, err := window.Parse(in.DateStart, in.DateEnd, a.loc)
	if err != nil {
		return nil, err
	}
	w = w.Normalize()

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultVendorLimit
	}
	vendors, err := a.vendors.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}

	out := &VendorList{Vendors: make([]VendorSummary, 0, len(vendors)), Window: w}
	for _, v := range vendors {
		tot, _, err := a.scan(ctx, window.Build(v.CardNumber, w, ""))
		if err != nil {
			return nil, err
		}
		s := VendorSummary{
			Vendor:       v,
			VoucherTotal: tot.Voucher,
			VoucherCount: tot.VoucherCount,
		}
		if in.WithTotals {
			res := tot.Apply(rate)
			s.HasTotals = true
			s.GrossTotal = tot.Gross
			s.Commission = res.Commission
			s.NetPayable = res.NetPayable
		}
		out.Vendors = append(out.Vendors, s)
	}
	return out, nil
}

// CalculateInput carries calculate/report parameters.
type CalculateInput struct {
	VendorCard string
	DateStart  string
	DateEnd    string
	Rate       string
}

// DailyBreakdown aggregates one calendar day.
type DailyBreakdown struct {
	Date    string
	Count   int
	Gross   decimal.Decimal
	Voucher decimal.Decimal
}

// VendorPeriodDetail is the calculate/report result.
type VendorPeriodDetail struct {
	VendorCard string
	Window     window.Window
	Rate       commission.Rate
	Totals     commission.Totals
	Result     commission.Result
	// Orders is nil for reports.
	Orders []models.Order
	Daily  []DailyBreakdown
}

// Calculate computes one vendor's figures, the matching orders and the
// daily breakdown. Reversed bounds are swapped.
func (a *Aggregator) Calculate(ctx context.Context, in CalculateInput) (*VendorPeriodDetail, error) {
	if err := requireAll(map[string]string{
		"vendeur_card": in.VendorCard,
		"date_debut":   in.DateStart,
		"date_fin":     in.DateEnd,
	}); err != nil {
		return nil, err
	}
	rate, err := ParseRate(in.Rate)
	if err != nil {
		return nil, err
	}
	w, err := window.Parse(in.DateStart, in.DateEnd, a.loc)
	if err != nil {
		return nil, err
	}
	w = w.Normalize()

	tot, orders, err := a.scan(ctx, window.Build(in.VendorCard, w, ""))
	if err != nil {
		return nil, err
	}
	a.log.DebugContext(ctx, "calculated vendor window",
		"vendor_card", in.VendorCard, "orders", tot.Count,
		"date_debut", window.Format(w.Start), "date_fin", window.Format(w.End))

	return &VendorPeriodDetail{
		VendorCard: in.VendorCard,
		Window:     w,
		Rate:       rate,
		Totals:     tot,
		Result:     tot.Apply(rate),
		Orders:     orders,
		Daily:      a.daily(orders),
	}, nil
}

// Report is Calculate without the order list.
func (a *Aggregator) Report(ctx context.Context, in CalculateInput) (*VendorPeriodDetail, error) {
	d, err := a.Calculate(ctx, in)
	if err != nil {
		return nil, err
	}
	d.Orders = nil
	return d, nil
}

// VendorTotals is one row of the legacy totals table.
type VendorTotals struct {
	Vendor     models.Vendor
	GrossTotal decimal.Decimal
	Commission decimal.Decimal
	NetPayable decimal.Decimal
}

// LegacyTotals scans every vendor over all time at the fixed default rate.
func (a *Aggregator) LegacyTotals(ctx context.Context) ([]VendorTotals, error) {
	vendors, err := a.vendors.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	rate := commission.Default()
	out := make([]VendorTotals, 0, len(vendors))
	for _, v := range vendors {
		tot, _, err := a.scan(ctx, window.Build(v.CardNumber, window.Window{}, ""))
		if err != nil {
			return nil, err
		}
		res := tot.Apply(rate)
		out = append(out, VendorTotals{
			Vendor:     v,
			GrossTotal: tot.Gross,
			Commission: res.Commission,
			NetPayable: res.NetPayable,
		})
	}
	return out, nil
}

// scan runs one ledger query and accumulates its totals.
func (a *Aggregator) scan(ctx context.Context, p window.Predicate) (commission.Totals, []models.Order, error) {
	orders, err := a.orders.Find(ctx, p)
	if err != nil {
		return commission.Totals{}, nil, fmt.Errorf("query orders: %w", err)
	}
	var tot commission.Totals
	for i := range orders {
		tot.Add(orders[i].Total, orders[i].IsVoucher())
	}
	return tot, orders, nil
}

// daily groups orders by calendar day, ascending.
func (a *Aggregator) daily(orders []models.Order) []DailyBreakdown {
	byDay := map[string]*DailyBreakdown{}
	for i := range orders {
		o := &orders[i]
		day := o.Date.In(a.loc).Format(models.DateLayout)
		d, ok := byDay[day]
		if !ok {
			d = &DailyBreakdown{Date: day}
			byDay[day] = d
		}
		amt := decimal.NewFromInt(o.Total)
		d.Count++
		d.Gross = d.Gross.Add(amt)
		if o.IsVoucher() {
			d.Voucher = d.Voucher.Add(amt)
		}
	}
	out := make([]DailyBreakdown, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// requireAll fails with ErrMissingParameter naming every blank field.
func requireAll(fields map[string]string) error {
	v := validation.Violations{}
	for name, value := range fields {
		validation.Required(name, value, v)
	}
	if v.Empty() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(v.Fields(), ", "))
}
