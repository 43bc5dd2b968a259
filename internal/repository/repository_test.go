package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/testutil"
	"github.com/diewo77/go-payroll/internal/window"
	"github.com/shopspring/decimal"
)

func TestVendorRepository(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := NewVendorRepository(conn)
	ctx := context.Background()
	a := testutil.CreateVendor(t, conn, "Alice", "C1", 0)
	testutil.CreateVendor(t, conn, "Bob", "C2", 10)
	testutil.CreateVendor(t, conn, "Carol", "C3", 5)

	all, err := repo.List(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List(0) = %d, %v", len(all), err)
	}
	two, _ := repo.List(ctx, 2)
	if len(two) != 2 || two[0].CardNumber != "C1" || two[1].CardNumber != "C2" {
		t.Errorf("List(2) = %+v", two)
	}

	v, err := repo.ByCard(ctx, "C1")
	if err != nil || v.ID != a.ID {
		t.Errorf("ByCard(C1) = %+v, %v", v, err)
	}
	if _, err := repo.ByCard(ctx, "NOPE"); !errors.Is(err, ErrVendorNotFound) {
		t.Errorf("ByCard(NOPE) err = %v", err)
	}

	m, err := repo.ByCards(ctx, []string{"C1", "C3", "GHOST"})
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["C3"].Name != "Carol" {
		t.Errorf("ByCards = %+v", m)
	}
	empty, err := repo.ByCards(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ByCards(nil) = %v, %v", empty, err)
	}
}

func TestOrderRepository_FindOrdersOldestFirst(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := NewOrderRepository(conn)
	testutil.CreateOrder(t, conn, "C1", 300, models.PaymentCash, testutil.At(2025, 1, 20, 0, 0, 0, 0))
	testutil.CreateOrder(t, conn, "C1", 100, models.PaymentCash, testutil.At(2025, 1, 5, 0, 0, 0, 0))
	testutil.CreateOrder(t, conn, "C2", 200, models.PaymentCash, testutil.At(2025, 1, 10, 0, 0, 0, 0))

	orders, err := repo.Find(context.Background(), window.Build("C1", window.Window{}, ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 || orders[0].Total != 100 || orders[1].Total != 300 {
		t.Errorf("orders = %+v", orders)
	}
}

func line(vendorID uint, gross int64) models.PeriodLine {
	g := decimal.NewFromInt(gross)
	return models.PeriodLine{
		VendorID:     vendorID,
		OrderCount:   1,
		GrossTotal:   g,
		VoucherTotal: decimal.Zero,
		Rate:         decimal.RequireFromString("0.25"),
		Commission:   g.Mul(decimal.RequireFromString("0.25")),
		NetPayable:   g.Mul(decimal.RequireFromString("0.25")),
	}
}

func TestPeriodRepository_ReplaceLines(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := NewPeriodRepository(conn)
	ctx := context.Background()
	a := testutil.CreateVendor(t, conn, "Alice", "C1", 0)
	b := testutil.CreateVendor(t, conn, "Bob", "C2", 0)

	p := &models.Period{Name: "Jan", DateStart: testutil.Date(2025, 1, 1), DateEnd: testutil.Date(2025, 1, 31)}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceLines(ctx, p.ID, []models.PeriodLine{line(a.ID, 100), line(b.ID, 200)}); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceLines(ctx, p.ID, []models.PeriodLine{line(b.ID, 500)}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lines) != 1 || got.Lines[0].VendorID != b.ID || !got.Lines[0].GrossTotal.Equal(decimal.NewFromInt(500)) {
		t.Errorf("lines = %+v", got.Lines)
	}
	if got.Lines[0].Vendor == nil || got.Lines[0].Vendor.CardNumber != "C2" {
		t.Errorf("vendor not preloaded: %+v", got.Lines[0].Vendor)
	}

	// a duplicate vendor rolls the whole replacement back
	err = repo.ReplaceLines(ctx, p.ID, []models.PeriodLine{line(a.ID, 1), line(a.ID, 2)})
	if err == nil {
		t.Fatal("duplicate vendor lines accepted")
	}
	got, _ = repo.Get(ctx, p.ID)
	if len(got.Lines) != 1 || got.Lines[0].VendorID != b.ID {
		t.Errorf("lines after failed replace = %+v", got.Lines)
	}
}

func TestPeriodRepository_ListAndDelete(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	repo := NewPeriodRepository(conn)
	ctx := context.Background()

	for _, m := range []int{1, 3, 2} {
		p := &models.Period{Name: "P", DateStart: testutil.Date(2025, time.Month(m), 1), DateEnd: testutil.Date(2025, time.Month(m), 28)}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("total = %d, page = %d", total, len(page))
	}
	if page[0].DateStart.Month() != 3 || page[1].DateStart.Month() != 2 {
		t.Errorf("order = %v, %v", page[0].DateStart, page[1].DateStart)
	}
	rest, _, _ := repo.List(ctx, 2, 2)
	if len(rest) != 1 || rest[0].DateStart.Month() != 1 {
		t.Errorf("second page = %+v", rest)
	}

	ids, err := repo.IDs(ctx)
	if err != nil || len(ids) != 3 || ids[0] > ids[2] {
		t.Errorf("IDs = %v, %v", ids, err)
	}

	if err := repo.Delete(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(ctx, ids[0]); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if err := repo.Delete(ctx, ids[0]); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
