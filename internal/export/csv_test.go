package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []core.Movement{
		{ID: 2, Date: core.NewDate(2025, 4, 21), Description: "Lunch, with team", Amount: decimal.RequireFromString("12.5"), Kind: core.KindExpense},
		{ID: 1, Date: core.NewDate(2025, 4, 20), Description: "Salary", Amount: decimal.NewFromInt(1000), Kind: core.KindIncome},
	})
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "ID,Date,Description,Amount,Kind\n" +
		"2,2025-04-21,\"Lunch, with team\",12.50,expense\n" +
		"1,2025-04-20,Salary,1000.00,income\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "ID,Date,Description,Amount,Kind\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(core.NewDate(2025, 4, 1)); got != "cashflow_export_20250401.csv" {
		t.Errorf("got %q", got)
	}
}
