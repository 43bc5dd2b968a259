package policy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-payroll/auth"
	"github.com/diewo77/go-payroll/httpx"
	"github.com/diewo77/go-payroll/internal/access"
	"github.com/diewo77/go-payroll/internal/logging"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/services"
	"gorm.io/gorm"
)

// AuthGate checks the session user's profile against payroll permissions.
// Metrics and Log are optional.
type AuthGate struct {
	Gate          *access.Gate[uint]
	CacheResolver *access.CachedResolver[uint]
	Metrics       *metrics.Registry
	Log           *slog.Logger
}

// NewAuthGate resolves profiles from db and caches them for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := access.NewCachedResolver[uint](NewDBProfileResolver(db), cacheTTL)
	return &AuthGate{
		Gate:          access.NewGate[uint](cached),
		CacheResolver: cached,
	}
}

// Authorize checks the user stored in ctx.
func (ag *AuthGate) Authorize(ctx context.Context, resource string, action access.Action) error {
	uid, _ := auth.UserIDFromContext(ctx)
	return ag.Gate.Authorize(ctx, uid, resource, action)
}

func (ag *AuthGate) Can(ctx context.Context, resource string, action access.Action) bool {
	return ag.Authorize(ctx, resource, action) == nil
}

// InvalidateUser drops a cached profile after reassignment.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission rejects requests whose user lacks resource:action with a
// JSON error envelope: 401 without a user, 403 when denied and 500 when the
// profile could not be loaded.
func (ag *AuthGate) RequirePermission(resource string, action access.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := ag.Authorize(r.Context(), resource, action)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, access.ErrUnauthenticated):
				ag.Metrics.ObserveError("unauthenticated")
				httpx.Error(w, http.StatusUnauthorized, "Session requise")
			case errors.Is(err, services.ErrForbidden):
				ag.Metrics.ObserveError(services.Kind(err))
				httpx.Error(w, http.StatusForbidden, "Accès refusé")
			default:
				ag.Metrics.ObserveError(services.Kind(err))
				logging.FromContext(r.Context(), ag.Log).ErrorContext(r.Context(), "permission check failed",
					"resource", resource, "action", action, "error", err)
				httpx.Error(w, http.StatusInternalServerError, "Erreur interne du serveur")
			}
		})
	}
}

// RequireAdmin only lets "*:*" holders through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return ag.RequirePermission(access.Wildcard, access.Wildcard)
}
