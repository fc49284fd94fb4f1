package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cashflow/internal/cli"
	apphttp "cashflow/internal/http"
	"cashflow/internal/log"
	"cashflow/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap(log.ComponentApp)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result, err := cli.OpenBackend(ctx, logger, cfg, false)
	if err != nil {
		logger.Error("Failed to open ledger backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ledger := services.NewLedgerService(result.Store, result.Publisher)
	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		Logger:  logger.WithComponent(log.ComponentHTTP),
		Ready:   result.Ready,
		Version: result.Version,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting cashflow server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			exitCode = 1
		}
	}

	cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), result.Cleanup())
	})
	cancel()
	os.Exit(exitCode)
}
