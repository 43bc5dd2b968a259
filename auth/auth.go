// Package auth carries the signed session cookie that identifies the
// operator calling the payroll API.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-payroll/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")
	sessionTTL        = 14 * 24 * time.Hour
)

// UserVerifier reports whether a session's user still exists. An error
// means the lookup itself failed. A nil verifier accepts every correctly
// signed session.
type UserVerifier func(ctx context.Context, uid uint) (bool, error)

// Secret returns SESSION_SECRET or the development default.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func sign(uid string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(uid))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SessionCookie builds the signed cookie for userID.
func SessionCookie(userID uint) *http.Cookie {
	uid := strconv.FormatUint(uint64(userID), 10)
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    uid + "." + sign(uid),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	}
}

// CreateSession sets the signed session cookie on the response.
func CreateSession(w http.ResponseWriter, userID uint) {
	http.SetCookie(w, SessionCookie(userID))
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ParseSession validates the cookie and returns the user id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	uid, sig, ok := strings.Cut(c.Value, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(sign(uid))) {
		return 0, false
	}
	id, err := strconv.ParseUint(uid, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// WithUserID stores the user id in ctx.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext returns the user id stored by Middleware.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches the session user to the request context when the
// cookie is valid. It never rejects a request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 with an error envelope unless a verified user is
// attached to the request.
func RequireAuth(verify UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := UserIDFromContext(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "Session requise")
				return
			}
			if verify != nil {
				exists, err := verify(r.Context(), uid)
				if err != nil {
					slog.ErrorContext(r.Context(), "session user lookup failed", "user_id", uid, "error", err)
					httpx.Error(w, http.StatusInternalServerError, "Erreur interne du serveur")
					return
				}
				if !exists {
					ClearSession(w)
					httpx.Error(w, http.StatusUnauthorized, "Session invalide")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
