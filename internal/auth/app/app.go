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

	"github.com/prometheus/client_golang/prometheus"

	httpapi "github.com/nikhilsi/trading-recommendations-app/internal/auth/http"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite"
	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/metricsx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	hasher     *cryptox.MultiHasher
	registry   *prometheus.Registry
	metrics    *metricsx.Metrics

	// Services
	codec               *service.TokenCodec
	notifier            service.Notifier
	outbox              *service.Outbox
	inviteLedger        *service.InviteLedger
	sessionStore        *service.SessionStore
	authService         *service.AuthService
	bootstrapService    *service.BootstrapService
	gate                *service.Gate
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
			Service:   "auth-service",
			Version:   BuildVersion,
			Env:       cfg.Env,
			Level:     cfg.LogLevel,
			Format:    cfg.LogFormat,
			AddSource: cfg.LogAddSource,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initCrypto(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("auth service starting", "addr", app.cfg.Addr, "version", BuildVersion)

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

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	if err := app.outbox.Wait(ctx); err != nil {
		app.logger.Warn("pending notifications abandoned", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the fully wired router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initCrypto loads the pepper, builds the password hasher and the signing keys
func (app *Application) initCrypto() error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.hasher, err = cryptox.NewMultiHasher(app.cfg.PasswordAlg, app.cfg.BcryptCost, pepper)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	app.keyManager, err = InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.registry = prometheus.NewRegistry()
	app.metrics = metricsx.New(app.registry)

	if app.cfg.SMTP.Host != "" {
		app.notifier = service.NewSMTPNotifier(service.SMTPConfig{
			Host:          app.cfg.SMTP.Host,
			Port:          app.cfg.SMTP.Port,
			Username:      app.cfg.SMTP.Username,
			Password:      app.cfg.SMTP.Password,
			FromEmail:     app.cfg.SMTP.FromEmail,
			FromName:      app.cfg.SMTP.FromName,
			AppURL:        app.cfg.SMTP.AppURL,
			InviteTTLDays: app.cfg.InviteTTLDays,
		})
		app.logger.Info("smtp notifier enabled", "host", app.cfg.SMTP.Host, "port", app.cfg.SMTP.Port)
	} else {
		app.notifier = service.LogNotifier{}
		app.logger.Warn("SMTP_HOST not set, emails are only logged")
	}

	app.outbox = &service.Outbox{}
	app.codec = service.NewTokenCodec(app.keyManager, app.cfg.Issuer, nil)

	app.inviteLedger = &service.InviteLedger{
		Store:          app.db,
		CodeLength:     app.cfg.InviteCodeLen,
		DefaultTTLDays: app.cfg.InviteTTLDays,
		Notifier:       app.notifier,
		Outbox:         app.outbox,
		Metrics:        app.metrics,
	}
	app.sessionStore = &service.SessionStore{
		Store:   app.db,
		TTL:     app.cfg.RefreshTTL,
		Metrics: app.metrics,
	}
	app.authService = &service.AuthService{
		Store:     app.db,
		Hasher:    app.hasher,
		Codec:     app.codec,
		Invites:   app.inviteLedger,
		Sessions:  app.sessionStore,
		Notifier:  app.notifier,
		Outbox:    app.outbox,
		Metrics:   app.metrics,
		AccessTTL: app.cfg.AccessTTL,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:          app.db,
		Hasher:         app.hasher,
		Invites:        app.inviteLedger,
		Token:          app.cfg.BootstrapToken,
		DefaultInvites: app.cfg.BootstrapInviteCount,
	}
	app.gate = &service.Gate{Store: app.db, Codec: app.codec}

	if app.cfg.HousekeepingInterval > 0 {
		app.housekeepingService = service.NewHousekeepingService(
			app.db,
			app.logger,
			app.cfg.HousekeepingInterval,
			app.cfg.SessionRetention,
			app.metrics,
		)
	} else {
		app.logger.Warn("housekeeping disabled")
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keyManager, BuildVersion, app.db, app.logger)

	// Wire services to router
	router.AuthService = app.authService
	router.InviteLedger = app.inviteLedger
	router.BootstrapService = app.bootstrapService
	router.Gate = app.gate
	router.Metrics = app.metrics
	if app.cfg.MetricsEnabled {
		router.Gatherer = app.registry
	}
	router.CORSOrigins = app.cfg.CORSOrigins
	router.RateLimits = app.cfg.RateLimits
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
