package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-payroll/auth"
	"github.com/diewo77/go-payroll/internal/logging"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/policy"
	"github.com/diewo77/go-payroll/internal/testutil"
)

func newTestApp(t *testing.T) (*App, *fixtureUsers) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	reg := metrics.NewRegistry()
	cfg := policy.NewRouterConfig(conn, policy.Deps{Metrics: reg, Logger: logging.Discard()})

	users := &fixtureUsers{
		manager: testutil.CreateUser(t, conn, "manager@example.com", "payroll_manager"),
		user:    testutil.CreateUser(t, conn, "user@example.com", "payroll_user"),
		admin:   testutil.CreateUser(t, conn, "admin@example.com", "admin"),
	}
	testutil.CreateVendor(t, conn, "Alice", "C1", 0)
	testutil.CreateOrder(t, conn, "C1", 1000, models.PaymentCash, testutil.At(2025, 1, 3, 10, 0, 0, 0))
	return NewApp(conn, cfg, reg), users
}

type fixtureUsers struct {
	manager, user, admin models.User
}

func call(app *App, method, target, body string, user *models.User) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if user != nil {
		req.AddCookie(auth.SessionCookie(user.ID))
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestApp_Routes(t *testing.T) {
	app, u := newTestApp(t)
	window := `{"date_debut":"2025-01-01","date_fin":"2025-01-31"}`
	ghost := models.User{ID: 4242}

	tests := []struct {
		name   string
		method string
		target string
		body   string
		user   *models.User
		want   int
	}{
		{"health is public", http.MethodGet, "/healthz", "", nil, http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", nil, http.StatusOK},
		{"vendors need a session", http.MethodGet, "/api/pos_paie/vendeurs", "", nil, http.StatusUnauthorized},
		{"stale session", http.MethodGet, "/api/pos_paie/vendeurs", "", &ghost, http.StatusUnauthorized},
		{"vendors", http.MethodGet, "/api/pos_paie/vendeurs", "", &u.user, http.StatusOK},
		{"legacy totals", http.MethodGet, "/api/pos_paie/totaux", "", &u.user, http.StatusOK},
		{"user creates period", http.MethodPost, "/api/pos_paie/periode/create", window, &u.user, http.StatusOK},
		{"user cannot delete", http.MethodPost, "/api/pos_paie/periode/1/delete", "", &u.user, http.StatusForbidden},
		{"user cannot pay", http.MethodPost, "/api/pos_paie/sortie", `{"vendeur_card":"C1","date_debut":"2025-01-01","date_fin":"2025-01-31"}`, &u.user, http.StatusForbidden},
		{"manager pays", http.MethodPost, "/api/pos_paie/sortie", `{"vendeur_card":"C1","date_debut":"2025-01-01","date_fin":"2025-01-31"}`, &u.manager, http.StatusOK},
		{"manager deletes", http.MethodPost, "/api/pos_paie/periode/1/delete", "", &u.manager, http.StatusOK},
		{"manager is not admin", http.MethodGet, "/api/admin/users", "", &u.manager, http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/admin/users", "", &u.admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(app, tt.method, tt.target, tt.body, tt.user)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestApp_MetricsCountRequests(t *testing.T) {
	app, u := newTestApp(t)
	call(app, http.MethodGet, "/api/pos_paie/vendeurs", "", &u.user)

	rec := call(app, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(rec.Body.String(), `route="vendeurs"`) {
		t.Errorf("metrics output lacks the vendeurs route:\n%s", rec.Body.String())
	}
}
