package services

import (
	"testing"

	"github.com/diewo77/go-payroll/internal/logging"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/repository"
	"github.com/diewo77/go-payroll/internal/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	repos   *repository.Repositories
	agg     *Aggregator
	periods *PeriodManager
	metrics *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(conn)
	m := metrics.NewRegistry()
	log := logging.Discard()
	return &fixture{
		db:      conn,
		repos:   repos,
		agg:     NewAggregator(repos.Orders, repos.Vendors, nil, log),
		periods: NewPeriodManager(repos.Orders, repos.Vendors, repos.Periods, m, nil, log),
		metrics: m,
	}
}

func dec(t *testing.T, got decimal.Decimal, want int64, what string) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s = %s, want %d", what, got, want)
	}
}
