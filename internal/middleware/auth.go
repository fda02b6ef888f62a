// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"ecotrack/internal/models"
	"ecotrack/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// AccountLookup resolves the admin account behind a session.
type AccountLookup interface {
	FindByID(ctx context.Context, id string) (*models.AdminUser, error)
}

// LoadSession puts the authenticated session, if any, in the request
// context. Sessions are checked against the stored account on every
// request: a deleted account loses its session, and role, name and email
// follow the stored record. Sessions without an AdminID (static
// credentials before any main admin exists) are taken as they are.
// It does not enforce authentication.
func LoadSession(store *session.Store, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if data == nil || !data.Authenticated {
				next.ServeHTTP(w, r)
				return
			}

			if data.AdminID != "" {
				user, err := accounts.FindByID(r.Context(), data.AdminID)
				if err != nil {
					slog.Error("session account lookup failed", "error", err, "admin", data.AdminID)
					next.ServeHTTP(w, r)
					return
				}
				if user == nil {
					slog.Info("session revoked for deleted account", "admin", data.AdminID)
					if err := store.Destroy(r.Context(), w, r); err != nil {
						slog.Warn("session destroy failed", "error", err)
					}
					next.ServeHTTP(w, r)
					return
				}
				data.Role = string(user.Role)
				data.Name = user.Name
				data.Email = user.Email
			}

			r = r.WithContext(WithSession(r.Context(), data))
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects requests without the authenticated flag to the
// login page. Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !sess.Authenticated {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Require2FA redirects accounts with TOTP enabled that have not yet entered
// a code in this session. Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && sess.TOTPEnabled && !sess.TwoFADone {
			http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth and Require2FA.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, func(role models.Role) bool { return role.IsAdmin() })
}

// RequireEditor returns 403 for viewers. Admins and editors pass.
func RequireEditor(next http.Handler) http.Handler {
	return requireRole(next, func(role models.Role) bool { return role.CanEdit() })
}

func requireRole(next http.Handler, allowed func(models.Role) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !allowed(models.Role(sess.Role)) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithSession returns a context carrying the session data.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
