package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/diewo77/go-payroll/internal/commission"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/repository"
	"github.com/diewo77/go-payroll/internal/window"
)

// DefaultPeriodLimit is the list_periods page size when none is given.
const DefaultPeriodLimit = 50

// PeriodManager creates payroll periods and keeps their lines in sync with
// the order ledger.
type PeriodManager struct {
	orders  repository.OrderSource
	vendors repository.VendorRegistry
	periods repository.PeriodStore
	metrics *metrics.Registry
	loc     *time.Location
	log     *slog.Logger
	now     func() time.Time
}

func NewPeriodManager(
	orders repository.OrderSource,
	vendors repository.VendorRegistry,
	periods repository.PeriodStore,
	m *metrics.Registry,
	loc *time.Location,
	log *slog.Logger,
) *PeriodManager {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodManager{
		orders:  orders,
		vendors: vendors,
		periods: periods,
		metrics: m,
		loc:     loc,
		log:     log.With("service", "periods"),
		now:     time.Now,
	}
}

// CreatePeriodInput carries create_period parameters.
type CreatePeriodInput struct {
	Name      string
	DateStart string
	DateEnd   string
}

// CreatePeriod stores a new period and computes its lines before returning.
// Bounds are kept as given, even when reversed.
func (m *PeriodManager) CreatePeriod(ctx context.Context, in CreatePeriodInput) (*models.Period, error) {
	if err := requireAll(map[string]string{
		"date_debut": in.DateStart,
		"date_fin":   in.DateEnd,
	}); err != nil {
		return nil, err
	}
	start, err := window.ParseDate(in.DateStart, time.UTC)
	if err != nil {
		return nil, err
	}
	end, err := window.ParseDate(in.DateEnd, time.UTC)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = models.DefaultPeriodName(start.Format(models.DateLayout), end.Format(models.DateLayout))
	}

	p := &models.Period{Name: name, DateStart: start, DateEnd: end}
	if err := m.periods.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create period: %w", err)
	}
	m.log.InfoContext(ctx, "period created", "period_id", p.ID, "name", p.Name)

	if err := m.Recompute(ctx, p); err != nil {
		return nil, err
	}
	return m.Get(ctx, p.ID)
}

// Recompute rebuilds every line of p from the ledger. The previous lines are
// replaced in a single transaction, so running it twice with no ledger
// change yields the same lines.
func (m *PeriodManager) Recompute(ctx context.Context, p *models.Period) error {
	started := m.now()

	w := window.Between(m.calendarDay(p.DateStart), m.calendarDay(p.DateEnd))
	orders, err := m.orders.Find(ctx, window.Build("", w, ""))
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}

	cards := distinctCards(orders)
	byCard, err := m.vendors.ByCards(ctx, cards)
	if err != nil {
		return fmt.Errorf("resolve vendors: %w", err)
	}
	lines := BuildLines(orders, byCard)

	if err := m.periods.ReplaceLines(ctx, p.ID, lines); err != nil {
		return fmt.Errorf("replace lines: %w", err)
	}
	elapsed := m.now().Sub(started)
	m.metrics.ObserveRecompute(len(lines), elapsed)
	m.log.InfoContext(ctx, "period recomputed",
		"period_id", p.ID, "orders", len(orders), "lines", len(lines),
		"unknown_cards", len(cards)-len(byCard), "duration", elapsed)
	return nil
}

// RecomputeByID loads then recomputes one period.
func (m *PeriodManager) RecomputeByID(ctx context.Context, id uint) (*models.Period, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.Recompute(ctx, p); err != nil {
		return nil, err
	}
	return m.Get(ctx, id)
}

// RecomputeAll recomputes every period, oldest first. progress, when set,
// is called after each period.
func (m *PeriodManager) RecomputeAll(ctx context.Context, progress func(done, total int)) (int, error) {
	ids, err := m.periods.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list period ids: %w", err)
	}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := m.RecomputeByID(ctx, id); err != nil {
			return i, fmt.Errorf("period %d: %w", id, err)
		}
		if progress != nil {
			progress(i+1, len(ids))
		}
	}
	return len(ids), nil
}

// Get returns a period with its lines.
func (m *PeriodManager) Get(ctx context.Context, id uint) (*models.Period, error) {
	p, err := m.periods.Get(ctx, id)
	if errors.Is(err, repository.ErrPeriodNotFound) {
		return nil, fmt.Errorf("%w: periode %d", ErrNotFound, id)
	}
	return p, err
}

// PeriodPage is one list_periods page.
type PeriodPage struct {
	Periods []models.Period
	Total   int64
	Offset  int
	Limit   int
}

// List pages through periods, most recent start date first. Out of range
// limits fall back to the default.
func (m *PeriodManager) List(ctx context.Context, limit, offset int) (*PeriodPage, error) {
	if limit <= 0 {
		limit = DefaultPeriodLimit
	}
	if offset < 0 {
		offset = 0
	}
	periods, total, err := m.periods.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return &PeriodPage{Periods: periods, Total: total, Offset: offset, Limit: limit}, nil
}

// Delete removes a period and its lines.
func (m *PeriodManager) Delete(ctx context.Context, id uint) error {
	err := m.periods.Delete(ctx, id)
	if errors.Is(err, repository.ErrPeriodNotFound) {
		return fmt.Errorf("%w: periode %d", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	m.log.InfoContext(ctx, "period deleted", "period_id", id)
	return nil
}

// calendarDay moves a stored date onto midnight of the same calendar day in
// the configured location.
func (m *PeriodManager) calendarDay(d time.Time) time.Time {
	y, mo, day := d.UTC().Date()
	return time.Date(y, mo, day, 0, 0, 0, 0, m.loc)
}

// BuildLines groups orders by vendor card and turns each known vendor into
// one line. Orders whose card is not in vendors are skipped. Lines come out
// sorted by card.
func BuildLines(orders []models.Order, vendors map[string]models.Vendor) []models.PeriodLine {
	totals := make(map[string]*commission.Totals)
	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() {
			continue
		}
		if _, ok := vendors[o.VendorCard]; !ok {
			continue
		}
		t, ok := totals[o.VendorCard]
		if !ok {
			t = &commission.Totals{}
			totals[o.VendorCard] = t
		}
		t.Add(o.Total, o.IsVoucher())
	}

	cards := make([]string, 0, len(totals))
	for card := range totals {
		cards = append(cards, card)
	}
	sort.Strings(cards)

	lines := make([]models.PeriodLine, 0, len(cards))
	for _, card := range cards {
		v := vendors[card]
		t := totals[card]
		rate := commission.VendorRate(v.CommissionRate)
		res := t.Apply(rate)
		lines = append(lines, models.PeriodLine{
			VendorID:     v.ID,
			OrderCount:   t.Count,
			GrossTotal:   t.Gross,
			VoucherTotal: t.Voucher,
			Rate:         rate.Fraction(),
			Commission:   res.Commission,
			NetPayable:   res.NetPayable,
		})
	}
	return lines
}

func distinctCards(orders []models.Order) []string {
	seen := make(map[string]struct{})
	var cards []string
	for i := range orders {
		c := orders[i].VendorCard
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cards = append(cards, c)
	}
	sort.Strings(cards)
	return cards
}
