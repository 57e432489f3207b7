// internal/app/app.go
package app

import (
	"log/slog"
	"os"

	"github.com/Corphon/VisageForge/internal/config"
	"github.com/Corphon/VisageForge/internal/dice"
	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/history"
	"github.com/Corphon/VisageForge/internal/llm"
	_ "github.com/Corphon/VisageForge/internal/llm/providers/google"
	"github.com/Corphon/VisageForge/internal/schema"
	"github.com/Corphon/VisageForge/internal/services"
)

// App wires the whole module together: config, store, provider and the
// five services. Construction is explicit; there is no container and no
// global state.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	Store  *history.Store

	Adventure *services.AdventureService
	Studio    *services.StudioService
	Story     *services.StoryService
	Kids      *services.KidsService
	Export    *services.ExportService
}

// New builds the application from configuration. Close must be called to
// release the history store.
func New(cfg *config.Config) (*App, error) {
	log := newLogger(cfg.LogLevel)

	if cfg.GeminiAPIKey == "" {
		return nil, apperrors.NewProviderAuthError("GEMINI_API_KEY is not set", nil)
	}

	provider, err := llm.GetProvider("google", map[string]string{
		"api_key":       cfg.GeminiAPIKey,
		"default_model": cfg.TextModel,
	})
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	validator := schema.NewValidator()
	roller := dice.NewRoller()

	return &App{
		Config: cfg,
		Log:    log,
		Store:  store,
		Adventure: services.NewAdventureService(
			provider, validator, roller,
			cfg.TextModel, cfg.ImageModel, cfg.MaxImageRetries, log),
		Studio: services.NewStudioService(
			provider, validator, store,
			cfg.TextModel, cfg.ImageModel,
			cfg.StudioHistoryCap, cfg.DailyImageLimit, cfg.MaxImageRetries, log),
		Story: services.NewStoryService(
			provider, validator, store,
			cfg.TextModel, cfg.ImageModel,
			cfg.StoryHistoryCap, cfg.MaxImageRetries, log),
		Kids: services.NewKidsService(
			provider, validator, store,
			cfg.ImageModel, cfg.KidsHistoryCap, cfg.MaxImageRetries, log),
		Export: services.NewExportService(),
	}, nil
}

// Close releases the history store.
func (a *App) Close() error {
	return a.Store.Close()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
