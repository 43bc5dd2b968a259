package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/testutil"
	"github.com/diewo77/go-payroll/internal/window"
)

func TestParseRate(t *testing.T) {
	r, err := ParseRate("")
	if err != nil || r.Float() != 0.25 {
		t.Fatalf("default rate = %v, %v", r.Float(), err)
	}
	r, err = ParseRate(" 0.1 ")
	if err != nil || r.Float() != 0.1 {
		t.Fatalf("ParseRate(0.1) = %v, %v", r.Float(), err)
	}
	for _, raw := range []string{"abc", "NaN", "nan", "Inf", "+Inf", "-Inf", "1e400"} {
		if _, err := ParseRate(raw); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("ParseRate(%q) err = %v, want ErrInvalidRate", raw, err)
		}
	}
}

func TestNonFiniteRates_AreInvalid(t *testing.T) {
	f := newFixture(t)
	testutil.CreateVendor(t, f.db, "Alice", "C1", 0)
	ctx := context.Background()

	for _, raw := range []string{"NaN", "Inf"} {
		_, err := f.agg.Calculate(ctx, CalculateInput{VendorCard: "C1", DateStart: "2025-01-01", DateEnd: "2025-01-31", Rate: raw})
		if !errors.Is(err, ErrInvalidRate) {
			t.Errorf("Calculate(rate=%s) err = %v, want ErrInvalidRate", raw, err)
		}
		_, err = f.agg.ListVendors(ctx, ListVendorsInput{WithTotals: true, Rate: raw})
		if !errors.Is(err, ErrInvalidRate) {
			t.Errorf("ListVendors(rate=%s) err = %v, want ErrInvalidRate", raw, err)
		}
	}
}

func TestCalculate_VoucherExceedsCommission(t *testing.T) {
	f := newFixture(t)
	testutil.CreateVendor(t, f.db, "Alice", "C1", 0)
	testutil.CreateOrder(t, f.db, "C1", 1000, models.PaymentCash, testutil.At(2025, 1, 3, 10, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "C1", 400, models.PaymentVoucher, testutil.At(2025, 1, 5, 9, 0, 0, 0))

	d, err := f.agg.Calculate(context.Background(), CalculateInput{
		VendorCard: "C1", DateStart: "2025-01-01", DateEnd: "2025-01-31", Rate: "0.25",
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	dec(t, d.Totals.Gross, 1400, "gross")
	dec(t, d.Totals.Voucher, 400, "voucher")
	dec(t, d.Result.Commission, 350, "commission")
	dec(t, d.Result.NetPayable, -50, "net")
	if len(d.Orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(d.Orders))
	}
	if len(d.Daily) != 2 || d.Daily[0].Date != "2025-01-03" || d.Daily[1].Date != "2025-01-05" {
		t.Fatalf("daily = %+v", d.Daily)
	}
	dec(t, d.Daily[1].Voucher, 400, "daily voucher")
}

func TestCalculate_Empty(t *testing.T) {
	f := newFixture(t)
	d, err := f.agg.Calculate(context.Background(), CalculateInput{
		VendorCard: "NOBODY", DateStart: "2025-01-01", DateEnd: "2025-01-31",
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	dec(t, d.Totals.Gross, 0, "gross")
	dec(t, d.Result.Commission, 0, "commission")
	dec(t, d.Result.NetPayable, 0, "net")
	if len(d.Orders) != 0 || len(d.Daily) != 0 {
		t.Fatalf("expected empty lists, got %d orders %d days", len(d.Orders), len(d.Daily))
	}
}

func TestCalculate_ReversedBoundsSwap(t *testing.T) {
	f := newFixture(t)
	testutil.CreateOrder(t, f.db, "C1", 800, models.PaymentCash, testutil.At(2025, 1, 15, 12, 0, 0, 0))

	d, err := f.agg.Calculate(context.Background(), CalculateInput{
		VendorCard: "C1", DateStart: "2025-01-31", DateEnd: "2025-01-01",
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if window.Format(d.Window.Start) != "2025-01-01" || window.Format(d.Window.End) != "2025-01-31" {
		t.Errorf("window not swapped: %s..%s", window.Format(d.Window.Start), window.Format(d.Window.End))
	}
	dec(t, d.Result.Commission, 200, "commission")
	dec(t, d.Result.NetPayable, 200, "net")
}

func TestCalculate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CalculateInput
		want error
	}{
		{"missing card", CalculateInput{DateStart: "2025-01-01", DateEnd: "2025-01-31"}, ErrMissingParameter},
		{"missing end", CalculateInput{VendorCard: "C1", DateStart: "2025-01-01"}, ErrMissingParameter},
		{"bad date", CalculateInput{VendorCard: "C1", DateStart: "01/01/2025", DateEnd: "2025-01-31"}, ErrInvalidDate},
		{"bad rate", CalculateInput{VendorCard: "C1", DateStart: "2025-01-01", DateEnd: "2025-01-31", Rate: "x"}, ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.agg.Calculate(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReport_OmitsOrders(t *testing.T) {
	f := newFixture(t)
	testutil.CreateOrder(t, f.db, "C1", 800, models.PaymentCash, testutil.At(2025, 1, 15, 12, 0, 0, 0))
	d, err := f.agg.Report(context.Background(), CalculateInput{
		VendorCard: "C1", DateStart: "2025-01-01", DateEnd: "2025-01-31",
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if d.Orders != nil {
		t.Error("report should not carry orders")
	}
	if len(d.Daily) != 1 || d.Daily[0].Count != 1 {
		t.Errorf("daily = %+v", d.Daily)
	}
}

func TestListVendors(t *testing.T) {
	f := newFixture(t)
	testutil.CreateVendor(t, f.db, "Alice", "C1", 0)
	testutil.CreateVendor(t, f.db, "Bob", "C2", 10)
	testutil.CreateVendor(t, f.db, "Carol", "C3", 0)
	testutil.CreateOrder(t, f.db, "C1", 1000, models.PaymentCash, testutil.At(2025, 1, 3, 10, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "C1", 400, models.PaymentVoucher, testutil.At(2025, 1, 5, 9, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "C1", 100, models.PaymentVoucher, testutil.At(2025, 2, 5, 9, 0, 0, 0))
	ctx := context.Background()

	list, err := f.agg.ListVendors(ctx, ListVendorsInput{Limit: 2, DateStart: "2025-01-01", DateEnd: "2025-01-31", WithTotals: true})
	if err != nil {
		t.Fatalf("ListVendors: %v", err)
	}
	if len(list.Vendors) != 2 {
		t.Fatalf("vendors = %d, want 2", len(list.Vendors))
	}
	a := list.Vendors[0]
	if a.Vendor.CardNumber != "C1" || !a.HasTotals || a.VoucherCount != 1 {
		t.Fatalf("unexpected first entry %+v", a)
	}
	dec(t, a.VoucherTotal, 400, "voucher")
	dec(t, a.GrossTotal, 1400, "gross")
	dec(t, a.NetPayable, -50, "net")

	plain, err := f.agg.ListVendors(ctx, ListVendorsInput{})
	if err != nil {
		t.Fatalf("ListVendors: %v", err)
	}
	if len(plain.Vendors) != 3 || plain.Vendors[0].HasTotals {
		t.Fatalf("unexpected plain list %+v", plain.Vendors)
	}
	dec(t, plain.Vendors[0].VoucherTotal, 500, "unbounded voucher")

	if _, err := f.agg.ListVendors(ctx, ListVendorsInput{WithTotals: true, Rate: "abc"}); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := f.agg.ListVendors(ctx, ListVendorsInput{Rate: "abc"}); err != nil {
		t.Errorf("rate is ignored without totals, got %v", err)
	}
}

func TestLegacyTotals(t *testing.T) {
	f := newFixture(t)
	testutil.CreateVendor(t, f.db, "Alice", "C1", 50)
	testutil.CreateOrder(t, f.db, "C1", 1000, models.PaymentCash, testutil.At(2020, 1, 3, 10, 0, 0, 0))
	testutil.CreateOrder(t, f.db, "C1", 400, models.PaymentVoucher, time.Now().UTC())

	rows, err := f.agg.LegacyTotals(context.Background())
	if err != nil {
		t.Fatalf("LegacyTotals: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	// fixed 25% regardless of the vendor's own rate
	dec(t, rows[0].GrossTotal, 1400, "gross")
	dec(t, rows[0].Commission, 350, "commission")
	dec(t, rows[0].NetPayable, -50, "net")
}
