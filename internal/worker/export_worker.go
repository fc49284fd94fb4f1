package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/sheets"
)

// MovementSource provides the whole journal, newest first.
type MovementSource interface {
	AllMovements(ctx context.Context) ([]core.Movement, error)
}

// ExportWorker mirrors journal changes into a spreadsheet target.
type ExportWorker struct {
	target sheets.Target
	seen   cache.Cache[struct{}]
}

// NewExportWorker creates a worker. Event ids already handled are remembered
// for a day so redeliveries do not duplicate rows.
func NewExportWorker(target sheets.Target) *ExportWorker {
	return &ExportWorker{
		target: target,
		seen:   cache.NewLRUCache[struct{}](10000, 24*time.Hour),
	}
}

// HandleMovementEvent applies one event to the target. A returned error
// makes the consumer requeue the delivery.
func (w *ExportWorker) HandleMovementEvent(ctx context.Context, ev *amqp.MovementEvent) error {
	key := ev.EventID.String()
	if _, dup := w.seen.Get(key); dup {
		slog.InfoContext(ctx, "Skipping duplicate movement event", "event_id", key)
		return nil
	}

	switch ev.Action {
	case amqp.ActionRecorded:
		m, err := ev.Movement.ToMovement()
		if err != nil {
			return fmt.Errorf("decode movement %d: %w: %w", ev.Movement.ID, amqp.ErrPermanent, err)
		}
		ref, err := w.target.AppendMovement(ctx, m)
		if err != nil {
			if rejected(err) {
				return fmt.Errorf("append movement %d: %w: %w", m.ID, amqp.ErrPermanent, err)
			}
			return fmt.Errorf("append movement %d: %w", m.ID, err)
		}
		slog.InfoContext(ctx, "Movement exported", "movement_id", m.ID, "row", ref)
	case amqp.ActionReversed:
		if err := w.target.DeleteMovement(ctx, ev.Movement.ID); err != nil {
			return fmt.Errorf("delete movement %d: %w", ev.Movement.ID, err)
		}
		slog.InfoContext(ctx, "Movement removed from export", "movement_id", ev.Movement.ID)
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}

	w.seen.Set(key, struct{}{})
	return nil
}

// rejected reports whether the target refused the movement itself, which a
// retry cannot change.
func rejected(err error) bool {
	for _, target := range []error{core.ErrInvalidText, core.ErrInvalidAmount, core.ErrInvalidKind, core.ErrInvalidAccount} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Resync rewrites the target from the journal in chronological order and
// returns the number of rows written.
func (w *ExportWorker) Resync(ctx context.Context, src MovementSource) (int, error) {
	ms, err := src.AllMovements(ctx)
	if err != nil {
		return 0, fmt.Errorf("read journal: %w", err)
	}

	ordered := make([]core.Movement, len(ms))
	for i, m := range ms {
		ordered[len(ms)-1-i] = m
	}
	if err := w.target.ReplaceMovements(ctx, ordered); err != nil {
		return 0, fmt.Errorf("replace export: %w", err)
	}

	slog.InfoContext(ctx, "Export resynced", "rows", len(ordered))
	return len(ordered), nil
}
