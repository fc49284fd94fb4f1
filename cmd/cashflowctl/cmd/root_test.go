package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

func fixedNow() time.Time { return time.Date(2025, 4, 21, 10, 0, 0, 0, time.UTC) }

// seedLedger points the environment at a fresh SQLite ledger holding one
// vault income of 1000.
func seedLedger(t *testing.T) (dir, dbPath string) {
	t.Helper()
	dir = t.TempDir()
	dbPath = filepath.Join(dir, "cashflow.db")
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "info")

	record(t, dbPath, "1000", "Seed")
	return dir, dbPath
}

func record(t *testing.T, dbPath, amount, desc string) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	ledger := services.NewLedgerService(repo, nil, services.WithClock(fixedNow))
	if _, err := ledger.RecordTransaction(context.Background(), services.TransactionRequest{
		Account:     core.Vault,
		Amount:      decimal.RequireFromString(amount),
		Direction:   core.Income,
		Description: desc,
	}); err != nil {
		t.Fatalf("record %s: %v", desc, err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(fixedNow)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	seedLedger(t)

	out, err := run(t, "snapshot")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for _, want := range []string{"Vault:", "1000.00", "Operational:", "10 days left, warning"} {
		if !strings.Contains(out, want) {
			t.Errorf("snapshot output missing %q:\n%s", want, out)
		}
	}
}

func TestRolloverCommand(t *testing.T) {
	seedLedger(t)

	out, err := run(t, "rollover")
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if !strings.Contains(out, "Obligations reset") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestExportCSVCommand(t *testing.T) {
	dir, _ := seedLedger(t)

	out, err := run(t, "export", "csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "ID,Date,Description,Amount,Kind" || lines[1] != "1,2025-04-21,Seed,1000.00,income" {
		t.Fatalf("csv = %q", out)
	}

	file := filepath.Join(dir, "journal.csv")
	out, err = run(t, "export", "csv", "--out", file)
	if err != nil {
		t.Fatalf("export csv --out: %v", err)
	}
	if !strings.Contains(out, "Exported 1 movements") {
		t.Errorf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "ID,Date,Description,Amount,Kind\n") {
		t.Errorf("export file = %q", data)
	}
}

func TestExportSheetsRequiresSpreadsheet(t *testing.T) {
	seedLedger(t)
	if _, err := run(t, "export", "sheets"); err == nil || !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("err = %v", err)
	}
}

func TestBackupAndRestore(t *testing.T) {
	dir, dbPath := seedLedger(t)

	out, err := run(t, "backup")
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	backup := filepath.Join(dir, "backups", "cashflow_backup_20250421_100000.db")
	if !strings.Contains(out, backup) {
		t.Fatalf("backup output = %q, want path %s", out, backup)
	}
	if _, err := os.Stat(backup); err != nil {
		t.Fatalf("backup file: %v", err)
	}

	record(t, dbPath, "500", "After backup")
	if out, _ := run(t, "snapshot"); !strings.Contains(out, "1500.00") {
		t.Fatalf("expected 1500.00 before restore:\n%s", out)
	}

	out, err = run(t, "restore", backup)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	pre := filepath.Join(dir, "backup_pre_restore_100000.db")
	if !strings.Contains(out, pre) {
		t.Errorf("restore output = %q, want pre-restore path %s", out, pre)
	}
	if _, err := os.Stat(pre); err != nil {
		t.Errorf("pre-restore copy: %v", err)
	}

	out, err = run(t, "snapshot")
	if err != nil {
		t.Fatalf("snapshot after restore: %v", err)
	}
	if !strings.Contains(out, "1000.00") || strings.Contains(out, "1500.00") {
		t.Errorf("restore did not roll back the ledger:\n%s", out)
	}
}

func TestBackupNeedsSQLite(t *testing.T) {
	seedLedger(t)
	t.Setenv("DATA_BACKEND", "memory")

	if _, err := run(t, "backup"); err != errNotSQLite {
		t.Errorf("backup err = %v, want %v", err, errNotSQLite)
	}
	if _, err := run(t, "restore", "missing.db"); err != errNotSQLite {
		t.Errorf("restore err = %v, want %v", err, errNotSQLite)
	}
}
