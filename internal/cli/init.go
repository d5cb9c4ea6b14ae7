// Package cli provides common CLI initialization utilities shared by
// cmd/expense-tracker and cmd/expense-export.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
)

// SetupLogger initializes structured logging to stdout at the given
// LOG_LEVEL and sets it as the default logger. Unknown levels fall back to
// info.
func SetupLogger(level string) *log.Logger {
	return SetupLoggerTo(os.Stdout, level)
}

// SetupLoggerTo is SetupLogger writing to out.
func SetupLoggerTo(out io.Writer, level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = out
	if lvl, err := config.ParseLogLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger creates the configured store and loads the ledger from it.
// The returned cleanup closes the store.
func OpenLedger(ctx context.Context, logger *log.Logger, cfg *config.Config) (*ledger.Ledger, backend.CleanupFunc, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	l := ledger.New(result.Store,
		ledger.WithLogger(logger.WithComponent(log.ComponentLedger).Logger),
		ledger.WithStorageKey(cfg.StorageKey),
		ledger.WithCategories(cfg.Categories...),
	)
	l.Load(ctx)
	return l, result.Cleanup, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Fatal logs msg with err and exits.
func Fatal(logger *log.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{slog.Any(log.FieldError, err)}, args...)...)
	os.Exit(1)
}
