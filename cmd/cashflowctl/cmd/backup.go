package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cashflow/internal/backend"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

var errNotSQLite = errors.New("backup and restore need DATA_BACKEND=sqlite")

func newBackupCmd(a *app) *cobra.Command {
	var dir string
	c := &cobra.Command{
		Use:   "backup",
		Short: "Write a consistent copy of the ledger database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend.BackendType(a.cfg.DataBackend) != backend.SQLiteBackend {
				return errNotSQLite
			}
			if dir == "" {
				dir = a.cfg.BackupDir
			}
			return a.withLedger(cmd.Context(), func(_ *services.LedgerService, result *backend.BackendResult) error {
				dest := filepath.Join(dir, storage.BackupName(a.now()))
				if err := result.Repository.Backup(cmd.Context(), dest); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", dest)
				return nil
			})
		},
	}
	c.Flags().StringVar(&dir, "dir", "", "backup directory (default BACKUP_DIR)")
	return c
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the ledger database with a backup",
		Long: `Replace the ledger database with a backup. The current database is
first copied to backup_pre_restore_<HHMMSS>.db next to it. Stop the server
and workers before restoring.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend.BackendType(a.cfg.DataBackend) != backend.SQLiteBackend {
				return errNotSQLite
			}
			pre, err := storage.Restore(cmd.Context(), args[0], a.cfg.SQLiteDBPath, a.now())
			if err != nil {
				return err
			}
			if pre != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Previous database saved to %s\n", pre)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ledger restored from %s\n", args[0])
			return nil
		},
	}
}
