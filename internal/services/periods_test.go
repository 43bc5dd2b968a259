package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func seedJanuary(t *testing.T, f *fixture) (alice, bob models.Vendor) {
	t.Helper()
	alice = testutil.CreateVendor(t, f.db, "Alice", "C1", 0)
	bob = testutil.CreateVendor(t, f.db, "Bob", "C2", 10)
	testutil.CreateOrder(t, f.db, "C2", 500, models.PaymentCash, testutil.At(2025, 1, 2, 8, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "C1", 1000, models.PaymentCash, testutil.At(2025, 1, 3, 10, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "C1", 400, models.PaymentVoucher, testutil.At(2025, 1, 31, 23, 59, 59, 999000000))
	testutil.CreateOrder(t, f.db, "C1", 9000, models.PaymentCash, testutil.At(2025, 2, 1, 0, 0, 0, 0))
	testutil.CreateOrderState(t, f.db, "C1", 7000, models.PaymentCash, models.OrderStateCancelled, testutil.At(2025, 1, 10, 0, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "GHOST", 300, models.PaymentCash, testutil.At(2025, 1, 10, 0, 0, 0, 0))
	return alice, bob
}

func TestCreatePeriod_ComputesLines(t *testing.T) {
	f := newFixture(t)
	alice, bob := seedJanuary(t, f)

	p, err := f.periods.CreatePeriod(context.Background(), CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if p.Name != "Paie 2025-01-01 → 2025-01-31" {
		t.Errorf("Name = %q", p.Name)
	}
	if len(p.Lines) != 2 {
		t.Fatalf("lines = %d, want 2 (unknown card dropped)", len(p.Lines))
	}

	byVendor := map[uint]models.PeriodLine{}
	for _, l := range p.Lines {
		byVendor[l.VendorID] = l
	}
	a := byVendor[alice.ID]
	if a.OrderCount != 2 {
		t.Errorf("alice orders = %d, want 2", a.OrderCount)
	}
	dec(t, a.GrossTotal, 1400, "alice gross")
	dec(t, a.VoucherTotal, 400, "alice voucher")
	dec(t, a.Commission, 350, "alice commission")
	dec(t, a.NetPayable, -50, "alice net")
	if !a.Rate.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("alice rate = %s, want fallback 0.25", a.Rate)
	}

	b := byVendor[bob.ID]
	dec(t, b.Commission, 50, "bob commission")
	if !b.Rate.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("bob rate = %s, want vendor 0.1", b.Rate)
	}

	tot := p.Totals()
	dec(t, tot.Gross, 1900, "period gross")
	dec(t, tot.NetPayable, 0, "period net")
	if got := promtest.ToFloat64(f.metrics.Recomputes); got != 1 {
		t.Errorf("recomputes metric = %v, want 1", got)
	}
}

func TestCreatePeriod_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01"}); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}
	if _, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025/01/31"}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	var n int64
	f.db.Model(&models.Period{}).Count(&n)
	if n != 0 {
		t.Errorf("periods stored after failed validation: %d", n)
	}
}

func TestCreatePeriod_ReversedBoundsKept(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	p, err := f.periods.CreatePeriod(context.Background(), CreatePeriodInput{Name: "Backwards", DateStart: "2025-01-31", DateEnd: "2025-01-01"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if p.DateStart.Format(models.DateLayout) != "2025-01-31" {
		t.Errorf("start swapped: %s", p.DateStart.Format(models.DateLayout))
	}
	if len(p.Lines) != 0 {
		t.Errorf("reversed period matched %d lines", len(p.Lines))
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	ctx := context.Background()

	p, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	again, err := f.periods.RecomputeByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("RecomputeByID: %v", err)
	}
	if len(again.Lines) != len(p.Lines) {
		t.Fatalf("lines %d after recompute, want %d", len(again.Lines), len(p.Lines))
	}
	for i := range p.Lines {
		x, y := p.Lines[i], again.Lines[i]
		if x.VendorID != y.VendorID || x.OrderCount != y.OrderCount ||
			!x.GrossTotal.Equal(y.GrossTotal) || !x.NetPayable.Equal(y.NetPayable) {
			t.Errorf("line %d changed: %+v vs %+v", i, x, y)
		}
	}

	var n int64
	f.db.Model(&models.PeriodLine{}).Where("period_id = ?", p.ID).Count(&n)
	if n != int64(len(p.Lines)) {
		t.Errorf("stored lines = %d, want %d", n, len(p.Lines))
	}
}

func TestRecompute_PicksUpLedgerChanges(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	ctx := context.Background()
	p, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	carol := testutil.CreateVendor(t, f.db, "Carol", "C3", 0)
	testutil.CreateOrder(t, f.db, "C3", 800, models.PaymentCash, testutil.At(2025, 1, 20, 0, 0, 0, 0))

	got, err := f.periods.RecomputeByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("RecomputeByID: %v", err)
	}
	if len(got.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(got.Lines))
	}
	for _, l := range got.Lines {
		if l.VendorID == carol.ID {
			dec(t, l.Commission, 200, "carol commission")
			dec(t, l.NetPayable, 200, "carol net")
		}
	}
}

func TestPeriodLines_UniquePerVendor(t *testing.T) {
	f := newFixture(t)
	alice, _ := seedJanuary(t, f)
	p, err := f.periods.CreatePeriod(context.Background(), CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	dup := models.PeriodLine{PeriodID: p.ID, VendorID: alice.ID}
	if err := f.db.Omit("Vendor").Create(&dup).Error; err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestVendorDelete_CascadesLines(t *testing.T) {
	f := newFixture(t)
	alice, _ := seedJanuary(t, f)
	ctx := context.Background()
	p, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if err := f.db.Delete(&models.Vendor{}, alice.ID).Error; err != nil {
		t.Fatalf("delete vendor: %v", err)
	}
	got, err := f.periods.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("lines = %d, want 1 after vendor delete", len(got.Lines))
	}
	if got.Lines[0].VendorID == alice.ID {
		t.Error("deleted vendor line still present")
	}
}

func TestPeriodDelete(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	ctx := context.Background()
	p, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if err := f.periods.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var n int64
	f.db.Model(&models.PeriodLine{}).Count(&n)
	if n != 0 {
		t.Errorf("lines left = %d", n)
	}
	if err := f.periods.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := f.periods.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v, want ErrNotFound", err)
	}
}

func TestPeriodDelete_ForeignKeyCascade(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	p, err := f.periods.CreatePeriod(context.Background(), CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	// bypass the repository so only the constraint removes the lines
	if err := f.db.Exec("DELETE FROM payroll_periods WHERE id = ?", p.ID).Error; err != nil {
		t.Fatalf("raw delete: %v", err)
	}
	var n int64
	f.db.Model(&models.PeriodLine{}).Count(&n)
	if n != 0 {
		t.Errorf("lines left = %d, want cascade", n)
	}
}

func TestListPeriods(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	ctx := context.Background()
	for _, in := range []CreatePeriodInput{
		{DateStart: "2024-12-01", DateEnd: "2024-12-31"},
		{DateStart: "2025-01-01", DateEnd: "2025-01-31"},
		{DateStart: "2025-01-01", DateEnd: "2025-01-15"},
	} {
		if _, err := f.periods.CreatePeriod(ctx, in); err != nil {
			t.Fatalf("CreatePeriod: %v", err)
		}
	}

	page, err := f.periods.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Periods) != 2 {
		t.Fatalf("total=%d len=%d", page.Total, len(page.Periods))
	}
	// same start date: higher id first
	if page.Periods[0].DateEnd.Format(models.DateLayout) != "2025-01-15" {
		t.Errorf("first = %s", page.Periods[0].Name)
	}
	if len(page.Periods[1].Lines) != 2 || page.Periods[1].Lines[0].Vendor == nil {
		t.Errorf("lines not embedded: %+v", page.Periods[1].Lines)
	}

	rest, err := f.periods.List(ctx, -1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if rest.Limit != DefaultPeriodLimit || len(rest.Periods) != 1 {
		t.Errorf("limit=%d len=%d", rest.Limit, len(rest.Periods))
	}
}

func TestRecomputeAll(t *testing.T) {
	f := newFixture(t)
	seedJanuary(t, f)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := f.periods.CreatePeriod(ctx, CreatePeriodInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"}); err != nil {
			t.Fatalf("CreatePeriod: %v", err)
		}
	}
	var calls int
	n, err := f.periods.RecomputeAll(ctx, func(done, total int) {
		calls++
		if total != 3 {
			t.Errorf("total = %d", total)
		}
	})
	if err != nil || n != 3 || calls != 3 {
		t.Fatalf("RecomputeAll = %d, %v (calls %d)", n, err, calls)
	}
}

func TestBuildLines(t *testing.T) {
	vendors := map[string]models.Vendor{
		"B": {ID: 2, CardNumber: "B", CommissionRate: 20},
		"A": {ID: 1, CardNumber: "A"},
	}
	orders := []models.Order{
		{VendorCard: "B", Total: 100},
		{VendorCard: "A", Total: 800},
		{VendorCard: "X", Total: 50},
		{VendorCard: "A", Total: 200, PaymentType: models.PaymentVoucher},
		{VendorCard: "B", Total: 900, State: models.OrderStateCancelled},
	}
	lines := BuildLines(orders, vendors)
	if len(lines) != 2 || lines[0].VendorID != 1 || lines[1].VendorID != 2 {
		t.Fatalf("lines = %+v", lines)
	}
	dec(t, lines[0].Commission, 250, "A commission")
	dec(t, lines[0].NetPayable, 50, "A net")
	dec(t, lines[1].Commission, 20, "B commission")
	if lines[1].OrderCount != 1 {
		t.Errorf("B orders = %d", lines[1].OrderCount)
	}
	if got := BuildLines(nil, vendors); len(got) != 0 {
		t.Errorf("empty input gave %d lines", len(got))
	}
}
