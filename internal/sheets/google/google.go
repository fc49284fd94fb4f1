package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cashflow/internal/core"
	ports "cashflow/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSheetName = "Movements"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.Target = (*Client)(nil)

// Options configure the Sheets client. CredentialsJSON takes precedence over
// CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets client ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendMovement writes the entry as a new row, or over the row already
// holding its ID so replayed events never duplicate a movement.
func (c *Client) AppendMovement(ctx context.Context, m core.Movement) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}
	vr := &gsheet.ValueRange{Values: [][]any{movementRow(m)}}

	if row := findRow(ids, m.ID); row >= 0 {
		resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(c.sheetName, row), vr).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("overwrite row %d: %w", row+1, err)
		}
		slog.DebugContext(ctx, "Movement row already present, overwritten", "movement_id", m.ID, "row", row+1)
		return resp.UpdatedRange, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, columnRange(c.sheetName), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A:A", quoteSheet(c.sheetName))).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read ids from %s: %w", c.sheetName, err)
	}
	return resp.Values, nil
}

func (c *Client) DeleteMovement(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row < 0 {
		slog.InfoContext(ctx, "Movement row not found, nothing to delete", "movement_id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row),
			EndIndex:   int64(row + 1),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row+1, err)
	}
	return nil
}

// ReplaceMovements clears the sheet and writes the header plus every entry.
func (c *Client) ReplaceMovements(ctx context.Context, ms []core.Movement) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := columnRange(c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	values := make([][]any, 0, len(ms)+1)
	values = append(values, headerRow())
	for _, m := range ms {
		values = append(values, movementRow(m))
	}
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1", quoteSheet(c.sheetName)), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", c.sheetName, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
