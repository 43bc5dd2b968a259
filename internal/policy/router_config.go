package policy

import (
	"log/slog"
	"time"

	"github.com/diewo77/go-payroll/internal/handlers"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/payout"
	"github.com/diewo77/go-payroll/internal/repository"
	"github.com/diewo77/go-payroll/internal/services"
	"gorm.io/gorm"
)

// profileCacheTTL bounds how long a profile change can take to apply when
// it bypasses the admin handler.
const profileCacheTTL = 5 * time.Minute

// Deps carries the infrastructure shared by every handler.
type Deps struct {
	Metrics   *metrics.Registry
	Logger    *slog.Logger
	Publisher payout.Publisher
	Location  *time.Location
}

// RouterConfig holds the configured services, handlers and middleware.
type RouterConfig struct {
	AuthGate *AuthGate
	Resolver *DBProfileResolver
	Repos    *repository.Repositories

	Aggregator *services.Aggregator
	Periods    *services.PeriodManager
	Payouts    *services.PayoutService

	PayrollHandler   *handlers.PayrollHandler
	AdminUserHandler *handlers.AdminUserHandler
}

// NewRouterConfig wires repositories, services and handlers on db.
func NewRouterConfig(db *gorm.DB, deps Deps) *RouterConfig {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	authGate := NewAuthGate(db, profileCacheTTL)
	authGate.Metrics = deps.Metrics
	authGate.Log = deps.Logger
	repos := repository.NewRepositories(db)

	agg := services.NewAggregator(repos.Orders, repos.Vendors, deps.Location, deps.Logger)
	periods := services.NewPeriodManager(repos.Orders, repos.Vendors, repos.Periods, deps.Metrics, deps.Location, deps.Logger)
	payouts := services.NewPayoutService(repos.Orders, repos.Vendors, deps.Publisher, deps.Metrics, deps.Location, deps.Logger)

	return &RouterConfig{
		AuthGate:         authGate,
		Resolver:         NewDBProfileResolver(db),
		Repos:            repos,
		Aggregator:       agg,
		Periods:          periods,
		Payouts:          payouts,
		PayrollHandler:   handlers.NewPayrollHandler(agg, periods, payouts, deps.Metrics, deps.Logger, deps.Location),
		AdminUserHandler: handlers.NewAdminUserHandler(db, authGate.InvalidateUser),
	}
}
