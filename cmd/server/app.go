package main

import (
	"net/http"

	"github.com/diewo77/go-payroll/auth"
	"github.com/diewo77/go-payroll/httpx"
	"github.com/diewo77/go-payroll/internal/access"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/policy"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	metrics   *metrics.Registry
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, m *metrics.Registry) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
		metrics:   m,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.Middleware(a.mux).ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Public
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.Handle("GET /metrics", a.metrics.Handler())

	// Read-only aggregates: any known user
	h := a.routerCfg.PayrollHandler
	const api = "/api/pos_paie"

	a.mux.Handle("GET "+api+"/vendeurs", a.requireAuth(h.Handle("vendeurs", h.ListVendors)))
	a.mux.Handle("POST "+api+"/vendeurs", a.requireAuth(h.Handle("vendeurs", h.ListVendors)))
	a.mux.Handle("POST "+api+"/calculer", a.requireAuth(h.Handle("calculer", h.Calculate)))
	a.mux.Handle("POST "+api+"/rapport", a.requireAuth(h.Handle("rapport", h.Report)))
	a.mux.Handle("GET "+api+"/totaux", a.requireAuth(h.Handle("totaux", h.LegacyTotals)))
	a.mux.Handle("POST "+api+"/payer/{numeroCarte}", a.requireAuth(h.Handle("payer", h.Pay)))
	a.mux.Handle("GET "+api+"/periodes", a.requireAuth(h.Handle("periodes", h.ListPeriods)))
	a.mux.Handle("POST "+api+"/periodes", a.requireAuth(h.Handle("periodes", h.ListPeriods)))
	a.mux.Handle("GET "+api+"/periode/{id}", a.requireAuth(h.Handle("periode", h.GetPeriod)))

	// Mutations: payroll capabilities
	a.mux.Handle("POST "+api+"/periode/create",
		a.requireAuth(a.requirePermission(access.ActionCreate)(h.Handle("periode_create", h.CreatePeriod))))
	a.mux.Handle("POST "+api+"/periode/{id}/recompute",
		a.requireAuth(a.requirePermission(access.ActionCreate)(h.Handle("periode_recompute", h.RecomputePeriod))))
	a.mux.Handle("POST "+api+"/periode/{id}/delete",
		a.requireAuth(a.requirePermission(access.ActionDelete)(h.Handle("periode_delete", h.DeletePeriod))))
	a.mux.Handle("POST "+api+"/sortie",
		a.requireAuth(a.requirePermission(access.ActionPay)(h.Handle("sortie", h.PreparePayout))))

	// Admin
	auh := a.routerCfg.AdminUserHandler
	a.mux.Handle("GET /api/admin/users",
		a.requireAuth(a.requireAdmin(h.Handle("admin_users", auh.List))))
	a.mux.Handle("POST /api/admin/users/{id}/profile",
		a.requireAuth(a.requireAdmin(h.Handle("admin_user_profile", auh.AssignProfile))))
}

// requireAuth rejects requests without a session naming an existing user.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(a.routerCfg.Resolver.UserExists)(next)
}

func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequireAdmin()(next)
}

func (a *App) requirePermission(action access.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(access.ResourcePayroll, action)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.Error(w, http.StatusServiceUnavailable, "base de données indisponible")
		return
	}
	httpx.OK(w)
}
