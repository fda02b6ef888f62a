package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"ecotrack/internal/assistant"
	"ecotrack/internal/auth"
	"ecotrack/internal/cache"
	"ecotrack/internal/config"
	"ecotrack/internal/database"
	"ecotrack/internal/handlers"
	"ecotrack/internal/pages"
	"ecotrack/internal/render"
	"ecotrack/internal/router"
	"ecotrack/internal/session"
	"ecotrack/internal/storage"
	"ecotrack/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 30 * time.Second

// services holds the connections and stores shared by every command.
type services struct {
	cfg    *config.Config
	db     *sql.DB
	valkey *redis.Client

	posts   *store.PostStore
	tickets *store.TicketStore
	admins  *store.AdminStore
}

// openServices connects to the configured backends and builds the typed
// stores on top of them. PostgreSQL is migrated before use.
func openServices(cfg *config.Config) (*services, error) {
	s := &services{cfg: cfg}

	if cfg.NeedsValkey() {
		client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			return nil, fmt.Errorf("connect valkey: %w", err)
		}
		s.valkey = client
	}

	var backend store.Backend
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.db = db
		if err := database.Migrate(db); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		backend = store.NewPostgresBackend(db)
	case config.BackendValkey:
		backend = store.NewValkeyBackend(s.valkey)
	default:
		slog.Warn("using the in-memory store, data is lost on restart")
		backend = store.NewMemoryBackend()
	}

	s.posts = store.NewPostStore(backend)
	s.tickets = store.NewTicketStore(backend)
	s.admins = store.NewAdminStore(backend)
	return s, nil
}

// seed makes sure the main admin exists and fills an empty blog.
func (s *services) seed(ctx context.Context) error {
	return database.Seed(ctx, s.posts, s.admins, database.MainAdmin{
		Email:    s.cfg.AdminEmail,
		Name:     s.cfg.AdminName,
		Password: s.cfg.AdminPassword,
	})
}

// Close releases the backend connections.
func (s *services) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.valkey != nil {
		s.valkey.Close()
	}
}

// handler wires sessions, the page cache, the renderer and all handler
// groups into the router.
func (s *services) handler() (http.Handler, error) {
	cfg := s.cfg
	secureCookies := !cfg.IsDev()

	var (
		sessionBackend session.Backend
		pageCache      *cache.PageCache
	)
	if s.valkey != nil {
		sessionBackend = session.NewValkeyBackend(s.valkey)
		pageCache = cache.NewPageCache(s.valkey, cfg.PageCacheTTL)
	} else {
		sessionBackend = session.NewMemoryBackend()
	}
	sessions := session.NewStore(sessionBackend, secureCookies, cfg.SessionTTL)

	catalog, err := pages.Load()
	if err != nil {
		return nil, fmt.Errorf("load page catalog: %w", err)
	}
	renderer, err := render.New(cfg.IsDev(), catalog.Site())
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	var images handlers.ImageStore
	bucket, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}
	if bucket != nil {
		images = bucket
		slog.Info("image uploads enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, post images are URL only")
	}

	// The demo username resolves to the main admin; stored accounts sign in
	// with their email.
	authenticator := auth.Chain{
		auth.NewStatic(cfg.AdminUsername, cfg.AdminPassword, s.admins),
		auth.NewAccounts(s.admins),
	}

	h := router.Handlers{
		Admin:   handlers.NewAdmin(renderer, sessions, s.posts, s.tickets, s.admins, pageCache, images),
		Auth:    handlers.NewAuth(renderer, sessions, authenticator, s.admins, cfg.SiteName),
		Public:  handlers.NewPublic(renderer, s.posts, catalog, pageCache),
		Support: handlers.NewSupport(renderer, s.tickets, assistant.NewScripted("", cfg.ChatReplyDelay)),
	}

	// Content may have changed while the server was down.
	pageCache.InvalidateAll(context.Background())

	return router.New(sessions, s.admins, h, router.Options{
		Secure:      secureCookies,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
	}), nil
}

func runServe(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.seed(ctx); err != nil {
		return err
	}

	h, err := svc.handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func runMigrate(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.StoreBackend != config.BackendPostgres {
		slog.Info("nothing to migrate", "store", cfg.StoreBackend)
		return nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	version, err := database.Version(db)
	if err != nil {
		return err
	}
	slog.Info("schema up to date", "version", version)
	return nil
}

func runSeed(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.StoreBackend == config.BackendMemory {
		return errors.New("seeding the memory store has no lasting effect; choose postgres or valkey")
	}

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.seed(ctx)
}
