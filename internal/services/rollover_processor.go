package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RolloverLedger is the part of the ledger the rollover processor drives.
type RolloverLedger interface {
	RolloverDue(ctx context.Context, now time.Time) (bool, error)
	NewMonthRollover(ctx context.Context) (*Receipt, error)
}

// RolloverProcessorConfig holds configuration for the rollover processor
type RolloverProcessorConfig struct {
	// Interval is how often to check whether a new month started (default: 1h)
	Interval time.Duration
}

func DefaultRolloverProcessorConfig() RolloverProcessorConfig {
	return RolloverProcessorConfig{Interval: time.Hour}
}

// RolloverProcessor resets obligations once per calendar month.
type RolloverProcessor struct {
	ledger RolloverLedger
	config RolloverProcessorConfig
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRolloverProcessor(ledger RolloverLedger, config RolloverProcessorConfig) *RolloverProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRolloverProcessorConfig().Interval
	}
	return &RolloverProcessor{
		ledger: ledger,
		config: config,
		now:    time.Now,
	}
}

// ProcessDue applies the rollover if none has run in now's month. Reports
// whether it ran.
func (p *RolloverProcessor) ProcessDue(ctx context.Context, now time.Time) (bool, error) {
	if p.ledger == nil {
		return false, fmt.Errorf("processor not properly initialized")
	}

	due, err := p.ledger.RolloverDue(ctx, now)
	if err != nil {
		return false, fmt.Errorf("check rollover: %w", err)
	}
	if !due {
		slog.DebugContext(ctx, "Rollover not due", "month", now.Format("2006-01"))
		return false, nil
	}

	receipt, err := p.ledger.NewMonthRollover(ctx)
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "New month rollover applied",
		"month", now.Format("2006-01"),
		"pending_obligations", receipt.Snapshot.PendingObligations.StringFixed(2))
	return true, nil
}

// Start runs an immediate check and then one per interval. Returns an
// error if already running.
func (p *RolloverProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("rollover processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Rollover processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to exit. The processor counts as
// stopped once the loop returns, including when its context ended first.
func (p *RolloverProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopCh = nil
	p.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Rollover processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Rollover processor stop timed out")
		return ctx.Err()
	}
}

func (p *RolloverProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RolloverProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *RolloverProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessDue(ctx, p.now()); err != nil {
		slog.ErrorContext(ctx, "Rollover check failed", "error", err)
	}
}
