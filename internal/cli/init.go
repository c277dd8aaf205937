// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/ledgerbook and cmd/ledgerbook-worker.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ledgerbook/internal/config"
	"ledgerbook/internal/ledger"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage builds the ledger storage backend selected by the config.
// SQLite backends get their migrations applied as part of opening.
func OpenStorage(cfg *config.Config) (ledger.Storage, func() error, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case config.BackendJSON:
		return storage.NewJSONStore(cfg.LedgerFilePath), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

