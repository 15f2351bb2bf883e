package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/weatherwise/weatherwise/internal/auth/provider"
	"github.com/weatherwise/weatherwise/internal/auth/provider/devprovider"
	"github.com/weatherwise/weatherwise/internal/auth/provider/restprovider"
	"github.com/weatherwise/weatherwise/internal/auth/session"
	"github.com/weatherwise/weatherwise/internal/city"
	"github.com/weatherwise/weatherwise/internal/settings"
	"github.com/weatherwise/weatherwise/internal/store"
	"github.com/weatherwise/weatherwise/internal/store/drivers/sqlite"
	"github.com/weatherwise/weatherwise/internal/weather"
	"github.com/weatherwise/weatherwise/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the store, the identity provider, and the services
// behind the CLI. New builds everything; Close tears it down.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	identity   provider.Identity
	challenger provider.PhoneChallenger

	Session  *session.Controller
	Verifier *session.Verifier
	Cities   *city.Service
	Settings *settings.Service
	Weather  *weather.Client
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "weatherwise",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initProvider(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.restoreSession()
	app.initServices()

	return app, nil
}

// Logger exposes the application logger for command output paths that
// want structured diagnostics.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Close persists the current session token and closes the database.
func (app *Application) Close() error {
	app.saveSession()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase initializes the database and applies migrations
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

	app.logger.Debug("database migrations applied successfully")
	return nil
}

// initProvider builds the identity provider for the configured mode. The
// local provider keeps accounts in memory and prints SMS codes to stderr;
// the rest provider talks to a hosted identity API.
func (app *Application) initProvider() error {
	switch app.cfg.ProviderMode {
	case "local":
		p := devprovider.New(devprovider.Options{
			ChallengeTTL:      app.cfg.ChallengeTTL,
			AutoVerifyNumbers: app.cfg.AutoVerifyNumbers,
			Outbox: devprovider.SMSOutboxFunc(func(phoneNumber, code string) {
				fmt.Fprintf(os.Stderr, "[sms to %s] Your WeatherWise verification code is %s\n", phoneNumber, code)
			}),
			Logger: app.logger,
		})
		app.identity = p
		app.challenger = p
	case "rest":
		if app.cfg.IdentityBaseURL == "" {
			return fmt.Errorf("provider mode %q requires WEATHERWISE_IDENTITY_URL", app.cfg.ProviderMode)
		}
		c := restprovider.New(app.cfg.IdentityBaseURL)
		app.identity = c
		app.challenger = c
	default:
		return fmt.Errorf("unknown provider mode %q", app.cfg.ProviderMode)
	}
	return nil
}

// initServices initializes the controllers and domain services
func (app *Application) initServices() {
	app.Session = session.NewController(app.identity, app.logger)
	app.Verifier = session.NewVerifier(app.identity, app.challenger, app.db.MFAProfiles(), app.logger)

	if user, ok := app.Session.CurrentUser(); ok {
		app.Verifier.Seed(context.Background(), user.ID)
	}

	app.Weather = weather.NewClient(app.cfg.WeatherAPIKey)
	app.Weather.BaseURL = app.cfg.WeatherBaseURL

	app.Cities = city.NewService(app.db, app.Weather, app.logger)
	app.Settings = settings.NewService(app.db, app.logger)
}

// restoreSession signs the provider back in from the persisted ID token,
// when the provider supports token sessions. A stale or invalid token just
// means starting signed out.
func (app *Application) restoreSession() {
	ts, ok := app.identity.(provider.TokenSession)
	if !ok {
		return
	}

	token, err := os.ReadFile(app.cfg.SessionFile)
	if err != nil || len(token) == 0 {
		return
	}

	if err := ts.RestoreSession(context.Background(), string(token)); err != nil {
		app.logger.Debug("stored session not restored", "error", err)
		_ = os.Remove(app.cfg.SessionFile)
		return
	}
	app.logger.Debug("session restored from token")
}

// saveSession writes the current ID token next to the database so the next
// run can restore the session. Signed out means the file is removed.
func (app *Application) saveSession() {
	ts, ok := app.identity.(provider.TokenSession)
	if !ok {
		return
	}

	token := ts.IDToken()
	if token == "" {
		_ = os.Remove(app.cfg.SessionFile)
		return
	}

	if err := os.WriteFile(app.cfg.SessionFile, []byte(token), 0o600); err != nil {
		app.logger.Warn("failed to persist session token", "error", err)
	}
}
