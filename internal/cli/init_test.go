package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cashflow/internal/log"
	memsheet "cashflow/internal/sheets/memory"
)

func setLedgerEnv(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_BACKEND", backend)
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "db", "cashflow.db"))
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "debug")
	return dir
}

func TestLoadConfig(t *testing.T) {
	setLedgerEnv(t, "memory")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DataBackend != "memory" || cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("unexpected config: backend=%s level=%v", cfg.DataBackend, cfg.SlogLevel())
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("expected validation failure, got %v", err)
	}
}

func TestOpenBackend(t *testing.T) {
	dir := setLedgerEnv(t, "sqlite")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	logger := log.NewWriter(io.Discard, log.ComponentCLI, slog.LevelError)

	result, err := OpenBackend(context.Background(), logger, cfg, false)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	defer result.Cleanup()
	if got := result.Repository.Path(); got != filepath.Join(dir, "db", "cashflow.db") {
		t.Errorf("repository path = %s", got)
	}

	if _, err := OpenBackend(context.Background(), logger, cfg, true); err == nil {
		t.Error("requiring a broker without AMQP_URL should fail")
	}
}

func TestGracefulShutdown(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		cleanup func(ctx context.Context) error
		want    string
	}{
		{
			name:    "clean",
			timeout: time.Second,
			cleanup: func(context.Context) error { return nil },
			want:    "Shutdown complete",
		},
		{
			name:    "failed",
			timeout: time.Second,
			cleanup: func(context.Context) error { return errors.New("listener busy") },
			want:    "listener busy",
		},
		{
			name:    "timeout",
			timeout: 10 * time.Millisecond,
			cleanup: func(ctx context.Context) error {
				time.Sleep(200 * time.Millisecond)
				return nil
			},
			want: "Shutdown timeout reached",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.NewWriter(&buf, log.ComponentCLI, slog.LevelInfo)
			GracefulShutdown(logger, tt.timeout, tt.cleanup)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestShutdownContextCancel(t *testing.T) {
	ctx, cancel := ShutdownContext(log.NewWriter(io.Discard, log.ComponentCLI, slog.LevelError))
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}

func TestExportTargetFallsBackToMemory(t *testing.T) {
	setLedgerEnv(t, "memory")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	target, err := ExportTarget(context.Background(), log.NewWriter(io.Discard, log.ComponentCLI, slog.LevelError), cfg)
	if err != nil {
		t.Fatalf("ExportTarget: %v", err)
	}
	if _, ok := target.(*memsheet.Sheet); !ok {
		t.Errorf("target = %T, want *memory.Sheet", target)
	}
}
