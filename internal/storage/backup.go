package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Backup writes a consistent copy of the live database to dest. The copy is
// produced under a temporary name and renamed into place.
func (r *SQLiteRepository) Backup(ctx context.Context, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	tmp := dest + ".tmp"
	_ = os.Remove(tmp)
	if _, err := r.db.ExecContext(ctx, "VACUUM INTO ?", tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("vacuum into %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename backup: %w", err)
	}

	slog.InfoContext(ctx, "Ledger backup written", "path", dest)
	return nil
}

// BackupName returns the default timestamped backup file name.
func BackupName(now time.Time) string {
	return fmt.Sprintf("cashflow_backup_%s.db", now.Format("20060102_150405"))
}

// Restore replaces the database at dbPath with the ledger stored in src.
// The current file is first copied to backup_pre_restore_<HHMMSS>.db next to
// it. The repository using dbPath must be closed before calling Restore and
// reopened afterwards. Returns the path of the pre-restore copy, empty when
// there was no live database.
func Restore(ctx context.Context, src, dbPath string, now time.Time) (string, error) {
	if err := verifyLedger(ctx, src); err != nil {
		return "", fmt.Errorf("verify restore source: %w", err)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create db directory: %w", err)
	}

	var preRestore string
	if _, err := os.Stat(dbPath); err == nil {
		preRestore = filepath.Join(dir, fmt.Sprintf("backup_pre_restore_%s.db", now.Format("150405")))
		if err := copyFile(dbPath, preRestore); err != nil {
			return "", fmt.Errorf("save pre-restore copy: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat live database: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".restore-*.db")
	if err != nil {
		return preRestore, fmt.Errorf("create restore temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := copyFile(src, tmpName); err != nil {
		_ = os.Remove(tmpName)
		return preRestore, fmt.Errorf("copy restore source: %w", err)
	}
	if err := os.Rename(tmpName, dbPath); err != nil {
		_ = os.Remove(tmpName)
		return preRestore, fmt.Errorf("replace live database: %w", err)
	}
	_ = os.Remove(dbPath + "-journal")

	slog.InfoContext(ctx, "Ledger restored", "source", src, "pre_restore", preRestore)
	return preRestore, nil
}

// verifyLedger checks that path is a readable SQLite file holding the ledger
// tables.
func verifyLedger(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	var accounts int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM accounts").Scan(&accounts); err != nil {
		return fmt.Errorf("not a ledger database: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
