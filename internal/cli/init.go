// Package cli provides common initialization for the cashflow binaries:
// the API server, the export worker, the rollover worker and cashflowctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashflow/internal/backend"
	"cashflow/internal/config"
	"cashflow/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads .env and the environment, then validates the result.
func LoadConfig() (*config.Config, error) {
	LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger installs the process logger at the configured level.
func SetupLogger(component string, cfg *config.Config) *log.Logger {
	return log.Setup(component, cfg.SlogLevel())
}

// Bootstrap loads configuration and sets up logging for a long-running
// binary. It exits the process when the configuration is invalid.
func Bootstrap(component string) (*log.Logger, *config.Config) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(component, cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

// OpenBackend opens the configured ledger store and, when AMQP is set up,
// the event broker. requireBroker makes a missing broker fatal.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, requireBroker bool) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bcfg.RequireBroker = requireBroker

	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	return result, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// GracefulShutdown runs cleanup with a bounded deadline and logs the outcome.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cleanup(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Shutdown error", log.FieldOperation, log.OpShutdown, "error", err)
			return
		}
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	case <-ctx.Done():
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown, "timeout", timeout)
	}
}
