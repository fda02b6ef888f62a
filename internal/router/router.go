// Package router sets up all HTTP routes and middleware chains for the
// EcoTrack site. Routes are split into the public site, the JSON widget API
// and the admin area, each with its own middleware stack.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ecotrack/internal/handlers"
	"ecotrack/internal/middleware"
	"ecotrack/internal/session"
	"ecotrack/web"
)

// Handlers bundles the handler groups the router dispatches to.
type Handlers struct {
	Admin   *handlers.Admin
	Auth    *handlers.Auth
	Public  *handlers.Public
	Support *handlers.Support
}

// Options tunes the middleware stacks.
type Options struct {
	// Secure marks cookies Secure (production behind TLS).
	Secure bool
	// CORSOrigins lists origins allowed to call /api.
	CORSOrigins []string
	// LoginLimit is the number of login attempts per IP per minute.
	LoginLimit int
	// APILimit is the number of API calls per IP per minute.
	APILimit int
	// MaxFormBytes caps public and admin request bodies.
	MaxFormBytes int64
	// TrustProxy rewrites RemoteAddr from forwarded headers before rate
	// limiting. Leave off unless a reverse proxy sets those headers.
	TrustProxy bool
}

func (o Options) withDefaults() Options {
	if o.LoginLimit <= 0 {
		o.LoginLimit = 10
	}
	if o.APILimit <= 0 {
		o.APILimit = 30
	}
	if o.MaxFormBytes <= 0 {
		o.MaxFormBytes = 6 << 20
	}
	if len(o.CORSOrigins) == 0 {
		o.CORSOrigins = []string{"*"}
	}
	return o
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. accounts revalidates sessions on every request.
func New(sessionStore *session.Store, accounts middleware.AccountLookup, h Handlers, opts Options) chi.Router {
	opts = opts.withDefaults()
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore, accounts))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: static assets missing: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Widget API: CORS enabled, rate limited, no CSRF.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(middleware.RateLimit(opts.APILimit, time.Minute))
		r.Post("/tickets", h.Support.CreateTicket)
		r.Post("/chat", h.Support.Chat)
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.RequestSize(opts.MaxFormBytes))
		r.Use(middleware.NewCSRF(opts.Secure))

		publicRoutes(r, h)

		r.Route("/admin", func(r chi.Router) {
			adminRoutes(r, h, opts)
		})
	})

	r.NotFound(h.Public.NotFound)

	return r
}

func publicRoutes(r chi.Router, h Handlers) {
	r.Get("/", h.Public.Home)
	r.Get("/blog", h.Public.Blog)
	r.Get("/blog/{slug}", h.Public.BlogPost)
	r.Post("/blog/{slug}/comments", h.Public.CommentSubmit)
	r.Get("/about", h.Public.About)
	r.Get("/pricing", h.Public.Pricing)
	r.Get("/search", h.Public.Search)

	r.Get("/contact", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/company/contact", http.StatusMovedPermanently)
	})
	r.Get("/company/contact", h.Support.ContactPage)
	r.Post("/company/contact", h.Support.ContactSubmit)

	for _, section := range []string{"product", "solutions", "resources", "company", "legal"} {
		r.Get("/"+section+"/*", h.Public.CatalogPage)
	}
}

func adminRoutes(r chi.Router, h Handlers, opts Options) {
	// Auth pages, reachable without a session.
	r.Get("/login", h.Auth.LoginPage)
	r.With(middleware.RateLimit(opts.LoginLimit, time.Minute)).Post("/login", h.Auth.LoginSubmit)
	r.Post("/logout", h.Auth.Logout)

	// 2FA verification needs a session but not a completed second factor.
	// Code guesses are limited like login attempts.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/2fa/verify", h.Auth.TwoFAVerifyPage)
		r.With(middleware.RateLimit(opts.LoginLimit, time.Minute)).Post("/2fa/verify", h.Auth.TwoFAVerifySubmit)
	})

	// Authenticated and 2FA-verified admin area.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		})
		r.Get("/dashboard", h.Admin.Dashboard)

		// Profile and 2FA enrolment, open to every role.
		r.Get("/profile", h.Admin.Profile)
		r.Post("/profile", h.Admin.ProfileUpdate)
		r.Post("/profile/password", h.Admin.PasswordUpdate)
		r.Get("/2fa/setup", h.Auth.TwoFASetupPage)
		r.Post("/2fa/setup", h.Auth.TwoFASetupSubmit)
		r.Post("/2fa/disable", h.Auth.TwoFADisable)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.Admin.PostsList)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEditor)
				r.Get("/new", h.Admin.PostNew)
				r.Post("/", h.Admin.PostCreate)
				r.Get("/{id}/edit", h.Admin.PostEdit)
				r.Post("/{id}", h.Admin.PostUpdate)
				r.Post("/{id}/delete", h.Admin.PostDelete)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", h.Admin.Comments)
			r.With(middleware.RequireEditor).Post("/{postID}/{commentID}/{action}", h.Admin.CommentModerate)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", h.Admin.TicketsList)
			r.Get("/{id}", h.Admin.TicketDetail)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEditor)
				r.Post("/{id}/advance", h.Admin.TicketAdvance)
				r.Post("/{id}/respond", h.Admin.TicketRespond)
			})
		})

		// User management, admin only.
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", h.Admin.UsersList)
			r.Get("/new", h.Admin.UserNew)
			r.Post("/", h.Admin.UserCreate)
			r.Post("/{id}/delete", h.Admin.UserDelete)
		})
	})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
