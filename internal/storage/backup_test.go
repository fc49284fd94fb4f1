package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cashflow/internal/core"
)

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	adjust := func(amount string) {
		t.Helper()
		if err := repo.Update(ctx, func(tx Tx) error {
			_, err := tx.AdjustBalance(ctx, core.Vault, dec(amount))
			return err
		}); err != nil {
			t.Fatalf("adjust: %v", err)
		}
	}

	adjust("100")
	backup := filepath.Join(dir, "backups", BackupName(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)))
	if err := repo.Backup(ctx, backup); err != nil {
		t.Fatalf("backup: %v", err)
	}
	adjust("50")
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	now := time.Date(2025, 4, 1, 13, 4, 5, 0, time.UTC)
	pre, err := Restore(ctx, backup, dbPath, now)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if filepath.Base(pre) != "backup_pre_restore_130405.db" {
		t.Errorf("unexpected pre-restore name: %s", pre)
	}
	if _, err := os.Stat(pre); err != nil {
		t.Errorf("pre-restore copy missing: %v", err)
	}

	repo, err = NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	_ = repo.View(ctx, func(tx Tx) error {
		b, err := tx.Balance(ctx, core.Vault)
		if err != nil || !b.Equal(dec("100")) {
			t.Errorf("expected restored balance 100, got %s err=%v", b, err)
		}
		return nil
	})
}

func TestRestoreRejectsInvalidSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")

	tests := []struct {
		name  string
		setup func() string
	}{
		{"missing", func() string { return filepath.Join(dir, "nope.db") }},
		{"not sqlite", func() string {
			p := filepath.Join(dir, "junk.db")
			os.WriteFile(p, []byte("this is not a database file at all, just some text padding it out"), 0o644)
			return p
		}},
		{"directory", func() string { return dir }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Restore(ctx, tt.setup(), dbPath, time.Now()); err == nil {
				t.Fatal("expected error")
			}
			if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
				t.Errorf("live database should be untouched")
			}
		})
	}
}
