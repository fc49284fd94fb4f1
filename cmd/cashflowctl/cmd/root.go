// Package cmd provides the cashflowctl commands.
package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cashflow/internal/backend"
	"cashflow/internal/cli"
	"cashflow/internal/config"
	"cashflow/internal/log"
	"cashflow/internal/services"
)

// app carries state shared by every subcommand.
type app struct {
	debug  bool
	now    func() time.Time
	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the command tree. now is the clock used for dates and
// file names.
func NewRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	root := &cobra.Command{
		Use:   "cashflowctl",
		Short: "Operate a cashflow ledger from the command line",
		Long: `cashflowctl works directly on the ledger configured by the
environment (.env is read when present).

Example:
  cashflowctl snapshot
  cashflowctl export csv --out movements.csv
  cashflowctl backup --dir ./data/backups
  cashflowctl restore ./data/backups/cashflow_backup_20250421_100000.db`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if a.debug {
				level = slog.LevelDebug
			}
			a.logger = log.NewWriter(cmd.ErrOrStderr(), log.ComponentCLI, level)
			log.SetDefault(a.logger)

			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newSnapshotCmd(a),
		newRolloverCmd(a),
		newExportCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
	)
	return root
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCmd(time.Now).Execute()
}

// withLedger opens the configured backend for the duration of fn.
func (a *app) withLedger(ctx context.Context, fn func(*services.LedgerService, *backend.BackendResult) error) error {
	result, err := cli.OpenBackend(ctx, a.logger, a.cfg, false)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	ledger := services.NewLedgerService(result.Store, result.Publisher, services.WithClock(a.now))
	return fn(ledger, result)
}
