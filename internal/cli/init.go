// Package cli provides common CLI initialization utilities shared by
// cmd/nrjtrack, cmd/nrjtrack-worker and cmd/nrjctl.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nrjtrack/internal/backend"
	"nrjtrack/internal/config"
	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
)

// SetupLogger initializes structured logging for a binary and sets it as
// the default logger.
func SetupLogger(level slog.Level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     level,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates the configuration.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadSchema reads the field schema file named by the config.
// Exits the process when the file is invalid.
func LoadSchema(logger *log.Logger, cfg *config.Config) *core.Schema {
	schema, err := config.LoadSchema(cfg.FieldsConfig)
	if err != nil {
		logger.Error("Failed to load field schema", log.FieldError, err, "path", cfg.FieldsConfig)
		os.Exit(1)
	}
	logger.Info("Field schema loaded",
		"path", cfg.FieldsConfig,
		"numeric", len(schema.Numeric()),
		"text", len(schema.Text()))
	return schema
}

// OpenStore creates the configured reading store.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config, schema *core.Schema) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, backendCfg, schema)
}

// MustOpenStore is OpenStore exiting the process on failure.
func MustOpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config, schema *core.Schema) *backend.BackendResult {
	res, err := OpenStore(ctx, logger, cfg, schema)
	if err != nil {
		logger.Error("Failed to open reading store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
