package main

import (
	"context"
	"errors"
	"os"
	"time"

	"cashflow/internal/cli"
	"cashflow/internal/log"
	"cashflow/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap(log.ComponentRollover)
	logger.Info("Starting rollover-worker", "interval", cfg.RolloverInterval)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result, err := cli.OpenBackend(ctx, logger, cfg, false)
	if err != nil {
		logger.Error("Failed to open backend", "error", err)
		os.Exit(1)
	}

	ledger := services.NewLedgerService(result.Store, result.Publisher)
	processor := services.NewRolloverProcessor(ledger, services.RolloverProcessorConfig{
		Interval: cfg.RolloverInterval,
	})
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start rollover processor", "error", err)
		_ = result.Cleanup()
		os.Exit(1)
	}

	<-ctx.Done()
	cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return errors.Join(processor.Stop(ctx), result.Cleanup())
	})
}
