// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Stores and sessions run on in-memory backends; tests that need the
// Valkey page cache are skipped when Valkey is unavailable.
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"ecotrack/internal/assistant"
	"ecotrack/internal/auth"
	"ecotrack/internal/cache"
	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/pages"
	"ecotrack/internal/render"
	"ecotrack/internal/session"
	"ecotrack/internal/store"
)

const (
	testAdminEmail    = "admin@ecotrack.test"
	testAdminPassword = "main-admin-secret"
)

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Renderer  *render.Renderer
	Sessions  *session.Store
	Posts     *store.PostStore
	Tickets   *store.TicketStore
	Admins    *store.AdminStore
	Catalog   *pages.Catalog
	PageCache *cache.PageCache
	MainAdmin *models.AdminUser
	Admin     *Admin
	Auth      *Auth
	Public    *Public
	Support   *Support
}

// newTestEnv creates a test environment on memory backends without a page
// cache.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return buildTestEnv(t, nil)
}

// newCachedTestEnv creates a test environment whose page cache is backed by
// Valkey DB 15.
func newCachedTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return buildTestEnv(t, cache.NewPageCache(testValkeyClient(t), time.Minute))
}

func buildTestEnv(t *testing.T, pageCache *cache.PageCache) *testEnv {
	t.Helper()

	catalog, err := pages.Load()
	if err != nil {
		t.Fatalf("pages.Load: %v", err)
	}
	renderer, err := render.New(true, catalog.Site())
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	backend := store.NewMemoryBackend()
	posts := store.NewPostStore(backend)
	tickets := store.NewTicketStore(backend)
	admins := store.NewAdminStore(backend)
	sessions := session.NewStore(session.NewMemoryBackend(), false, time.Hour)

	main, err := admins.EnsureMainAdmin(context.Background(), testAdminEmail, "Main Admin", testAdminPassword)
	if err != nil {
		t.Fatalf("EnsureMainAdmin: %v", err)
	}

	authenticator := auth.Chain{
		auth.NewStatic("admin", "admin123", admins),
		auth.NewAccounts(admins),
	}

	return &testEnv{
		Renderer:  renderer,
		Sessions:  sessions,
		Posts:     posts,
		Tickets:   tickets,
		Admins:    admins,
		Catalog:   catalog,
		PageCache: pageCache,
		MainAdmin: main,
		Admin:     NewAdmin(renderer, sessions, posts, tickets, admins, pageCache, nil),
		Auth:      NewAuth(renderer, sessions, authenticator, admins, "EcoTrack"),
		Public:    NewPublic(renderer, posts, catalog, pageCache),
		Support:   NewSupport(renderer, tickets, assistant.NewScripted("", 0)),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	clean := func() {
		keys, _ := client.Keys(ctx, "page:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
	clean()
	t.Cleanup(func() {
		clean()
		client.Close()
	})
	return client
}

// mainSession returns a signed-in session for the main admin.
func (env *testEnv) mainSession() *session.Data {
	return &session.Data{
		Authenticated: true,
		AdminID:       env.MainAdmin.ID,
		Email:         env.MainAdmin.Email,
		Name:          env.MainAdmin.Name,
		Role:          string(models.RoleAdmin),
		TwoFADone:     true,
	}
}

// createPost stores a post directly through the store.
func (env *testEnv) createPost(t *testing.T, title string, status models.PostStatus, category string) *models.BlogPost {
	t.Helper()
	p, err := env.Posts.Create(context.Background(), &models.BlogPost{
		Title:    title,
		Excerpt:  "About " + title,
		Content:  "<p>Body of " + title + "</p>",
		Author:   "Jane Cooper",
		Status:   status,
		Category: category,
	})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return p
}

// withSession attaches session data to a request's context.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), sess))
}

// withChiURLParams adds chi URL parameters to a request.
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// formRequest builds a POST request with an urlencoded body.
func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// flashes decodes the flash cookie set on a response.
func flashes(t *testing.T, rec *httptest.ResponseRecorder) []render.Flash {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name != render.FlashCookieName || c.Value == "" {
			continue
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		return render.PopFlashes(httptest.NewRecorder(), req)
	}
	return nil
}

// assertRedirect checks for a 303 to the given location.
func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}
