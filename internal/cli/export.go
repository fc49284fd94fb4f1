package cli

import (
	"context"

	"cashflow/internal/config"
	"cashflow/internal/log"
	"cashflow/internal/sheets"
	gsheet "cashflow/internal/sheets/google"
	memsheet "cashflow/internal/sheets/memory"
)

// ExportTarget returns the Google Sheet when configured, otherwise an
// in-memory sheet so the export pipeline can run locally.
func ExportTarget(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.Target, error) {
	if !cfg.SheetsEnabled() {
		logger.InfoContext(ctx, "Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
