// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

type contextKey string

const (
	ctxEmailKey contextKey = "email"
	ctxUserKey  contextKey = "user"
)

// TokenValidator verifies a bearer token and returns its email claim.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// UserLookup resolves the stored user behind a verified email.
type UserLookup interface {
	Lookup(ctx context.Context, email string) (*models.User, error)
}

// Authenticate verifies the bearer token and puts its email into the request
// context. When the email belongs to a registered user, the user is loaded
// too so handlers can authorize by role. Unregistered callers pass through
// with only the email set; POST /users is how they register.
func Authenticate(tokens TokenValidator, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				writeMessage(w, http.StatusUnauthorized, "missing or malformed Authorization header")
				return
			}
			email, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := WithEmail(r.Context(), email)

			u, err := users.Lookup(ctx, email)
			switch {
			case err == nil:
				ctx = WithUser(ctx, u)
			case errors.Is(err, apperr.ErrNotFound):
			default:
				logger.Error("load authenticated user", "error", err, "email", email)
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects callers that have a valid token but no account yet.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeMessage(w, http.StatusUnauthorized, "user is not registered")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows only callers whose stored role is Admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromCtx(r.Context())
		if u == nil {
			writeMessage(w, http.StatusUnauthorized, "user is not registered")
			return
		}
		if u.Role != models.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EmailFromCtx returns the verified token email or "".
func EmailFromCtx(ctx context.Context) string {
	email, _ := ctx.Value(ctxEmailKey).(string)
	return email
}

// WithEmail returns a context carrying the verified token email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxEmailKey, email)
}

// UserFromCtx returns the authenticated user or nil.
func UserFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxUserKey).(*models.User)
	return u
}

// WithUser returns a context carrying the given user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
