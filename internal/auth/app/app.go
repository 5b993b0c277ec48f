package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/shopauth/internal/auth/http"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/postgres"
	redisstore "github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/ratelimit"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db            store.Store
	redis         *redisstore.Store // nil unless REDIS_ADDR is set
	refreshTokens store.RefreshTokenStore
	keys          Keys
	limiter       *ratelimit.Limiter

	// Services
	tokenService        *service.TokenService
	refreshService      *service.RefreshService
	accountService      *service.AccountService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "shopauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	keys, err := InitKeys(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.keys = keys

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRefreshTokenStore(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRefreshTokenStore moves refresh tokens to Redis when configured.
// Accounts always stay in the database.
func (app *Application) initRefreshTokenStore(ctx context.Context) error {
	app.refreshTokens = app.db
	if app.cfg.RedisAddr == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rs, err := redisstore.Open(ctx, app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = rs
	app.refreshTokens = rs

	app.logger.Info("refresh tokens stored in redis", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Codec:          app.keys.Codec,
		Signer:         app.keys.Signer,
		Verifier:       app.keys.Signer,
		Store:          app.refreshTokens,
		Issuer:         app.cfg.Issuer,
		AccessTTL:      app.cfg.AccessTTL,
		AdminAccessTTL: app.cfg.AdminAccessTTL,
		RefreshTTL:     app.cfg.RefreshTTL,
	}
	app.refreshService = &service.RefreshService{
		Tokens:   app.tokenService,
		Store:    app.refreshTokens,
		Accounts: app.db,
	}
	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: app.keys.Hasher,
		Tokens: app.tokenService,
	}

	app.limiter = ratelimit.New(ratelimit.Config{
		Capacity:   app.cfg.RateLimitCapacity,
		Window:     app.cfg.RateLimitWindow,
		MaxEntries: app.cfg.RateLimitMaxCacheSize,
	})

	app.housekeepingService = service.NewHousekeepingService(
		app.refreshService,
		app.limiter,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokenService,
		app.db,
		app.limiter,
		httpx.RateLimitOptions{
			Enabled:       app.cfg.RateLimitEnabled,
			TrackByIP:     app.cfg.RateLimitTrackByIP,
			ExcludedPaths: app.cfg.RateLimitExcludedPaths,
		},
		BuildVersion,
		app.logger,
	)

	// Wire services to router
	router.RefreshService = app.refreshService
	router.AccountService = app.accountService
	router.StrictThrottle = httpx.ThrottleFromEnv("STRICT", httpx.StrictLimit)
	router.ModerateThrottle = httpx.ThrottleFromEnv("MODERATE", httpx.ModerateLimit)
	if app.redis != nil {
		router.RefreshTokenPinger = app.redis
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
