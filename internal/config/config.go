// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries everything the application reads from the environment.
// A .env file in the working directory is loaded first when present.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	TextModel  string `env:"TEXT_MODEL" envDefault:"gemini-2.5-flash"`
	ImageModel string `env:"IMAGE_MODEL" envDefault:"imagen-3.0-generate-002"`

	StudioHistoryCap int `env:"STUDIO_HISTORY_CAP" envDefault:"10"`
	KidsHistoryCap   int `env:"KIDS_HISTORY_CAP" envDefault:"10"`
	StoryHistoryCap  int `env:"STORY_HISTORY_CAP" envDefault:"3"`

	MaxImageRetries int `env:"MAX_IMAGE_RETRIES" envDefault:"1"`
	DailyImageLimit int `env:"DAILY_IMAGE_LIMIT" envDefault:"70"`
}

// Load reads .env (if any), parses the environment and prepares the data
// directory.
func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	return cfg, nil
}

// DatabasePath is where the history store lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "visageforge.db")
}
