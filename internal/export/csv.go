// Package export renders the journal for external tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cashflow/internal/core"
)

var csvHeader = []string{"ID", "Date", "Description", "Amount", "Kind"}

// WriteCSV writes ms in the given order below a header row.
func WriteCSV(w io.Writer, ms []core.Movement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range ms {
		rec := []string{
			strconv.FormatInt(m.ID, 10),
			m.Date.String(),
			m.Description,
			core.FormatAmount(m.Amount),
			string(m.Kind),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write movement %d: %w", m.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the default export name for the given day.
func FileName(d core.Date) string {
	return fmt.Sprintf("cashflow_export_%s.csv", d.Format("20060102"))
}
