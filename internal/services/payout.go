package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diewo77/go-payroll/internal/commission"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/payout"
	"github.com/diewo77/go-payroll/internal/repository"
	"github.com/diewo77/go-payroll/internal/window"
	"github.com/diewo77/go-payroll/validation"
)

// PayoutService prepares vendor payout drafts for the cash subsystem.
type PayoutService struct {
	orders    repository.OrderSource
	vendors   repository.VendorRegistry
	publisher payout.Publisher
	metrics   *metrics.Registry
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
}

func NewPayoutService(
	orders repository.OrderSource,
	vendors repository.VendorRegistry,
	publisher payout.Publisher,
	m *metrics.Registry,
	loc *time.Location,
	log *slog.Logger,
) *PayoutService {
	if publisher == nil {
		publisher = payout.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PayoutService{
		orders:    orders,
		vendors:   vendors,
		publisher: publisher,
		metrics:   m,
		loc:       loc,
		log:       log.With("service", "payout"),
		now:       time.Now,
	}
}

// PayoutInput carries prepare_payout parameters. RatePercent is a 0..100
// percentage overriding the vendor's own rate.
type PayoutInput struct {
	VendorCard  string
	DateStart   string
	DateEnd     string
	RatePercent string
}

// PreparePayout computes the vendor's net payable for the window and
// publishes the resulting outflow draft.
func (s *PayoutService) PreparePayout(ctx context.Context, in PayoutInput) (*payout.Draft, error) {
	if err := requireAll(map[string]string{
		"vendeur_card": in.VendorCard,
		"date_debut":   in.DateStart,
		"date_fin":     in.DateEnd,
	}); err != nil {
		return nil, err
	}
	var override float64
	if raw := strings.TrimSpace(in.RatePercent); raw != "" {
		f, err := parseFinite(raw)
		if err != nil {
			return nil, err
		}
		v := validation.Violations{}
		validation.RangeFloat("pourcentage", f, 0, 100, v)
		if !v.Empty() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRate, v)
		}
		override = f
	}
	w, err := window.Parse(in.DateStart, in.DateEnd, s.loc)
	if err != nil {
		return nil, err
	}
	w = w.Normalize()

	v, err := s.vendors.ByCard(ctx, in.VendorCard)
	if errors.Is(err, repository.ErrVendorNotFound) {
		return nil, fmt.Errorf("%w: vendeur %s", ErrNotFound, in.VendorCard)
	}
	if err != nil {
		return nil, err
	}
	pv := models.PayrollVendor{Vendor: *v, DateStart: *w.Start, DateEnd: *w.End, RatePercent: override}

	orders, err := s.orders.Find(ctx, window.Build(v.CardNumber, w, ""))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	var tot commission.Totals
	for i := range orders {
		tot.Add(orders[i].Total, orders[i].IsVoucher())
	}
	res := tot.Apply(commission.VendorRate(pv.EffectivePercent()))

	start, end := window.Format(w.Start), window.Format(w.End)
	d := payout.Draft{
		Type:       payout.TypeOutflow,
		VendorCard: v.CardNumber,
		VendorName: v.DisplayName(),
		Amount:     commission.Units(res.NetPayable),
		Memo:       payout.Memo(v.DisplayName(), start, end),
		DateStart:  start,
		DateEnd:    end,
		PreparedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, d); err != nil {
		return nil, err
	}
	s.metrics.ObservePayoutDraft()
	s.log.InfoContext(ctx, "payout draft prepared",
		"vendor_card", d.VendorCard, "amount", d.Amount, "orders", tot.Count)
	return &d, nil
}
