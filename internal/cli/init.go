// Package cli holds the startup steps shared by cmd/fluxo and cmd/fluxo-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fluxo/internal/config"
	"fluxo/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored since the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from configuration and makes it the default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return newLogger(cfg, component, os.Stdout)
}

func newLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Component: component, Output: out})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "log_level", cfg.LogLevel)
	}
	return logger
}

// MustValidate exits the process when validate fails.
func MustValidate(logger *log.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// GracefulShutdown runs cleanup once SIGINT or SIGTERM arrives, bounded by timeout.
// The returned channel is closed after cleanup finishes.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) <-chan struct{} {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return shutdownOn(sigChan, logger, timeout, cleanup)
}

func shutdownOn(sigChan <-chan os.Signal, logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if cleanup == nil {
			return
		}
		if err := cleanup(shutdownCtx); err != nil {
			logger.Error("Shutdown error", log.FieldError, err)
			return
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		}
	}()
	return done
}
