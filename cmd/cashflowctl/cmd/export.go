package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cashflow/internal/backend"
	"cashflow/internal/cli"
	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/services"
	"cashflow/internal/worker"
)

func newExportCmd(a *app) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal",
	}
	exportCmd.AddCommand(newExportCSVCmd(a), newExportSheetsCmd(a))
	return exportCmd
}

func newExportCSVCmd(a *app) *cobra.Command {
	var out string
	c := &cobra.Command{
		Use:   "csv",
		Short: "Write the whole journal as CSV, newest first",
		Long: `Write the whole journal as CSV with the columns
ID,Date,Description,Amount,Kind. Without --out the CSV goes to stdout;
--out . writes cashflow_export_<YYYYMMDD>.csv in the current directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ledger *services.LedgerService, _ *backend.BackendResult) error {
				ms, err := ledger.AllMovements(cmd.Context())
				if err != nil {
					return err
				}
				if out == "" {
					return export.WriteCSV(cmd.OutOrStdout(), ms)
				}
				if out == "." {
					out = export.FileName(core.DateOf(a.now()))
				}
				if err := writeFile(out, func(w io.Writer) error { return export.WriteCSV(w, ms) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movements to %s\n", len(ms), out)
				return nil
			})
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return c
}

func newExportSheetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Rewrite the Google Sheet from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.SheetsEnabled() {
				return errors.New("GOOGLE_SPREADSHEET_ID is not set")
			}
			target, err := cli.ExportTarget(cmd.Context(), a.logger, a.cfg)
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(ledger *services.LedgerService, _ *backend.BackendResult) error {
				n, err := worker.NewExportWorker(target).Resync(cmd.Context(), ledger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d movements to sheet %q\n", n, a.cfg.GoogleSheetName)
				return nil
			})
		},
	}
}

// writeFile writes through a temporary file so a failed export leaves no
// partial file behind.
func writeFile(path string, write func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
