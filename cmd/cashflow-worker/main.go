package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/cli"
	"cashflow/internal/log"
	"cashflow/internal/services"
	"cashflow/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting cashflow-worker")

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result, err := cli.OpenBackend(ctx, logger, cfg, true)
	if err != nil {
		logger.Error("Failed to open backend", "error", err)
		os.Exit(1)
	}
	defer result.Cleanup()

	target, err := cli.ExportTarget(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize export target", "error", err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(target)
	journal := services.NewLedgerService(result.Store, nil)

	sl := log.NewStructuredLogger(logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return result.Broker.ConsumeMovementEvents(gctx, exporter.HandleMovementEvent)
	})

	// Periodic resync repairs rows missed while the consumer was down.
	g.Go(func() error {
		resync := func() {
			n, err := exporter.Resync(gctx, journal)
			if err != nil {
				sl.LogError(gctx, "Export resync failed", err, log.ComponentWorker, log.OpSync, log.NewFields())
				return
			}
			logger.InfoContext(gctx, "Export resynced", log.FieldOperation, log.OpSync, "rows", n)
		}

		resync()
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				resync()
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
