package google

import (
	"fmt"
	"strconv"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/sheets"
)

// movementRow renders a journal entry in the sheet's column order.
func movementRow(m core.Movement) []any {
	return []any{
		m.ID,
		m.Date.String(),
		m.Description,
		m.Amount.StringFixed(2),
		string(m.Kind),
		string(m.Account),
	}
}

func headerRow() []any {
	out := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		out[i] = h
	}
	return out
}

// findRow returns the zero-based index of the row whose first column holds
// id, or -1.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}

// columnRange builds an A1 range covering the export columns.
func columnRange(sheet string) string {
	last := rune('A' + len(sheets.Header) - 1)
	return fmt.Sprintf("%s!A:%c", quoteSheet(sheet), last)
}

// rowRange is the A1 range of the export columns on the zero-based row.
func rowRange(sheet string, row int) string {
	last := rune('A' + len(sheets.Header) - 1)
	return fmt.Sprintf("%s!A%d:%c%d", quoteSheet(sheet), row+1, last, row+1)
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
