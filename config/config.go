// Package config loads the bot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

var (
	ErrInvalidOwner   = errors.New("OWNER_ID must be a positive user id")
	ErrInvalidBackend = errors.New("STORAGE_BACKEND must be json or sqlite")
	ErrInvalidRate    = errors.New("FANOUT_RATE must not be negative")
)

type Config struct {
	Token             string  `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	OwnerID           int64   `env:"OWNER_ID,required"`
	StorageBackend    string  `env:"STORAGE_BACKEND" envDefault:"json"`
	DataPath          string  `env:"DATA_PATH" envDefault:"bot_data.json"`
	DatabasePath      string  `env:"DATABASE_PATH" envDefault:"data.sqlite"`
	BootstrapDeputies []int64 `env:"BOOTSTRAP_DEPUTIES" envSeparator:","`
	FanoutRate        float64 `env:"FANOUT_RATE" envDefault:"20"`
	MetricsListen     string  `env:"METRICS_LISTEN"`
}

// LoadEnvFile loads variables from a .env file without overriding the real environment.
// A missing file is only reported.
func LoadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Warn("config: Failed to load .env file", "path", path, "error", err)
		return
	}
	slog.Debug("config: Environment variables loaded from .env file", "path", path)
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.OwnerID <= 0 {
		return ErrInvalidOwner
	}
	switch c.StorageBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.StorageBackend)
	}
	if c.FanoutRate < 0 {
		return ErrInvalidRate
	}
	return nil
}
