package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/loopline/accountd/internal/account/http"
	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/internal/account/shopify"
	"github.com/loopline/accountd/internal/account/store"
	"github.com/loopline/accountd/internal/account/store/drivers/sqlite"
	"github.com/loopline/accountd/pkg/cryptox"
	"github.com/loopline/accountd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the account service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	mailer    notify.Mailer
	smsSender notify.SMSSender

	userService              *service.UserService
	resetService             *service.PasswordResetService
	emailConfirmationService *service.EmailConfirmationService
	housekeepingService      *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "account-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initNotify()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("account service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down account service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("account service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initNotify picks the real mail and SMS transports when configured and the
// log-only ones otherwise, so dev environments run without external services.
func (app *Application) initNotify() {
	if app.cfg.SMTP.Host != "" {
		app.mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     app.cfg.SMTP.Host,
			Port:     app.cfg.SMTP.Port,
			Username: app.cfg.SMTP.Username,
			Password: app.cfg.SMTP.Password,
			From:     app.cfg.SMTP.From,
		})
	} else {
		app.logger.Warn("no SMTP host configured, outgoing mail is logged only")
		app.mailer = notify.LogMailer{}
	}

	if app.cfg.SMS.GatewayURL != "" {
		app.smsSender = notify.NewSMSGateway(notify.GatewayConfig{
			URL:    app.cfg.SMS.GatewayURL,
			APIKey: app.cfg.SMS.APIKey,
			Sender: app.cfg.SMS.Sender,
		})
	} else {
		app.logger.Warn("no SMS gateway configured, outgoing SMS is logged only")
		app.smsSender = notify.LogSMSSender{}
	}
}

func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}

	app.resetService = &service.PasswordResetService{
		Store:    app.db,
		Mailer:   app.mailer,
		TokenTTL: app.cfg.SecurityTokenTTL,
		BaseURL:  app.cfg.BaseURL,
	}

	app.emailConfirmationService = &service.EmailConfirmationService{
		Store:    app.db,
		Mailer:   app.mailer,
		TokenTTL: app.cfg.SecurityTokenTTL,
		BaseURL:  app.cfg.BaseURL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.UserService = app.userService
	router.ResetService = app.resetService
	router.EmailConfirmationService = app.emailConfirmationService
	router.Mailer = app.mailer
	router.SMSSender = app.smsSender
	router.ShopifyClient = shopify.NewClient(shopify.Config{
		APIKey:      app.cfg.Shopify.APIKey,
		APISecret:   app.cfg.Shopify.APISecret,
		Scopes:      app.cfg.Shopify.Scopes,
		RedirectURI: app.cfg.Shopify.RedirectURI,
	})
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
