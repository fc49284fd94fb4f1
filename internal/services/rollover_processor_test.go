package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/storage/memory"
)

type fakeRolloverLedger struct {
	due   bool
	err   error
	calls int32
}

func (f *fakeRolloverLedger) RolloverDue(context.Context, time.Time) (bool, error) {
	return f.due, f.err
}

func (f *fakeRolloverLedger) NewMonthRollover(context.Context) (*Receipt, error) {
	atomic.AddInt32(&f.calls, 1)
	f.due = false
	return &Receipt{}, nil
}

func TestDefaultRolloverProcessorConfig(t *testing.T) {
	if got := DefaultRolloverProcessorConfig().Interval; got != time.Hour {
		t.Errorf("expected 1h, got %v", got)
	}
	p := NewRolloverProcessor(nil, RolloverProcessorConfig{})
	if p.config.Interval != time.Hour {
		t.Errorf("zero interval should fall back to default, got %v", p.config.Interval)
	}
}

func TestRolloverProcessor_ProcessDue(t *testing.T) {
	tests := []struct {
		name    string
		ledger  *fakeRolloverLedger
		wantRan bool
		wantErr bool
	}{
		{"due", &fakeRolloverLedger{due: true}, true, false},
		{"not due", &fakeRolloverLedger{due: false}, false, false},
		{"check fails", &fakeRolloverLedger{err: errors.New("db locked")}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRolloverProcessor(tt.ledger, DefaultRolloverProcessorConfig())
			ran, err := p.ProcessDue(context.Background(), fixedNow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ran != tt.wantRan {
				t.Errorf("ran = %v, want %v", ran, tt.wantRan)
			}
		})
	}

	if _, err := NewRolloverProcessor(nil, DefaultRolloverProcessorConfig()).ProcessDue(context.Background(), fixedNow); err == nil {
		t.Error("expected error without ledger")
	}
}

func TestRolloverProcessor_OncePerMonth(t *testing.T) {
	now := fixedNow
	svc := NewLedgerService(memory.New(), nil, WithClock(func() time.Time { return now }))
	p := NewRolloverProcessor(svc, DefaultRolloverProcessorConfig())
	ctx := context.Background()

	nextMonth := time.Date(2025, 5, 1, 0, 30, 0, 0, time.UTC)
	steps := []struct {
		at   time.Time
		want bool
	}{
		{fixedNow, false},
		{fixedNow.Add(time.Hour), false},
		{nextMonth, true},
		{nextMonth.Add(time.Hour), false},
	}
	for i, step := range steps {
		now = step.at
		ran, err := p.ProcessDue(ctx, step.at)
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if ran != step.want {
			t.Errorf("step %d (%s): ran = %v, want %v", i, step.at.Format(time.RFC3339), ran, step.want)
		}
	}
}

func TestRolloverProcessor_FreshLedgerKeepsPaidObligations(t *testing.T) {
	forEachStore(t, func(t *testing.T, svc *LedgerService, _ *recordingPublisher) {
		ctx := context.Background()
		mustRecord(t, svc, core.Vault, core.Income, "1000", "Savings")
		rent, err := svc.CreateObligation(ctx, "Rent", dec("300"), 1)
		if err != nil {
			t.Fatalf("create obligation: %v", err)
		}
		if _, err := svc.ToggleObligation(ctx, rent.ID, true); err != nil {
			t.Fatalf("pay rent: %v", err)
		}

		ran, err := NewRolloverProcessor(svc, DefaultRolloverProcessorConfig()).ProcessDue(ctx, fixedNow)
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if ran {
			t.Fatal("first check on a fresh ledger must not reset obligations mid-month")
		}

		obligations, err := svc.ListObligations(ctx)
		if err != nil {
			t.Fatalf("list obligations: %v", err)
		}
		if len(obligations) != 1 || !obligations[0].Paid {
			t.Fatalf("rent should still be paid: %+v", obligations)
		}
		snap, err := svc.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if !snap.Vault.Balance.Equal(dec("700")) || !snap.VaultFree.Equal(dec("700")) {
			t.Errorf("vault=%s free=%s, want 700/700", snap.Vault.Balance, snap.VaultFree)
		}
	})
}

func TestRolloverProcessor_StartStop(t *testing.T) {
	ledger := &fakeRolloverLedger{due: true}
	p := NewRolloverProcessor(ledger, RolloverProcessorConfig{Interval: time.Hour})
	ctx := context.Background()

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop should not error when not running: %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
	if atomic.LoadInt32(&ledger.calls) != 1 {
		t.Errorf("expected the immediate check to roll over once, got %d", ledger.calls)
	}
}

func TestRolloverProcessor_RestartAfterContextEnds(t *testing.T) {
	p := NewRolloverProcessor(&fakeRolloverLedger{}, RolloverProcessorConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("loop did not exit after its context ended")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("stop after exit: %v", err)
	}

	restart, stop := context.WithCancel(context.Background())
	defer stop()
	if err := p.Start(restart); err != nil {
		t.Fatalf("restart: %v", err)
	}
	stopCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	if err := p.Stop(stopCtx); err != nil {
		t.Errorf("stop: %v", err)
	}
}
