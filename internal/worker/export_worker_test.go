package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/sheets/memory"
)

type failingTarget struct {
	*memory.Sheet
}

func (failingTarget) AppendMovement(context.Context, core.Movement) (string, error) {
	return "", errors.New("quota exceeded")
}

type staticSource []core.Movement

func (s staticSource) AllMovements(context.Context) ([]core.Movement, error) {
	return s, nil
}

func movement(id int64, day int) core.Movement {
	return core.Movement{
		ID: id, Date: core.NewDate(2025, 4, day), Description: "entry",
		Amount: decimal.NewFromInt(id), Kind: core.KindExpense, Account: core.Operational,
	}
}

func TestExportWorker_RecordedAndReversed(t *testing.T) {
	sheet := memory.New()
	w := NewExportWorker(sheet)
	ctx := context.Background()

	recorded := amqp.NewMovementEvent(amqp.ActionRecorded, movement(1, 2))
	if err := w.HandleMovementEvent(ctx, recorded); err != nil {
		t.Fatalf("handle recorded: %v", err)
	}
	if err := w.HandleMovementEvent(ctx, recorded); err != nil {
		t.Fatalf("handle duplicate: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 1 || rows[0].ID != 1 {
		t.Fatalf("duplicate delivery should not add a row: %+v", rows)
	}

	if err := w.HandleMovementEvent(ctx, amqp.NewMovementEvent(amqp.ActionReversed, movement(1, 2))); err != nil {
		t.Fatalf("handle reversed: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 0 {
		t.Fatalf("reversed movement should be removed: %+v", rows)
	}
}

func TestExportWorker_TargetErrorIsRetryable(t *testing.T) {
	w := NewExportWorker(failingTarget{memory.New()})
	ev := amqp.NewMovementEvent(amqp.ActionRecorded, movement(1, 2))

	if err := w.HandleMovementEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error from target")
	}
	if _, seen := w.seen.Get(ev.EventID.String()); seen {
		t.Error("failed events must not be marked as seen")
	}
}

func TestExportWorker_Resync(t *testing.T) {
	sheet := memory.New()
	w := NewExportWorker(sheet)

	n, err := w.Resync(context.Background(), staticSource{movement(3, 5), movement(2, 4), movement(1, 3)})
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	rows := sheet.Rows()
	if n != 3 || rows[0].ID != 1 || rows[2].ID != 3 {
		t.Fatalf("expected chronological rows, got %+v", rows)
	}
}

func TestExportWorker_BacklogAfterResync(t *testing.T) {
	sheet := memory.New()
	w := NewExportWorker(sheet)
	ctx := context.Background()

	journal := staticSource{movement(8, 3), movement(7, 2)}
	if _, err := w.Resync(ctx, journal); err != nil {
		t.Fatalf("resync: %v", err)
	}

	// Events queued while the worker was down arrive after the resync.
	for _, m := range []core.Movement{movement(7, 2), movement(8, 3)} {
		if err := w.HandleMovementEvent(ctx, amqp.NewMovementEvent(amqp.ActionRecorded, m)); err != nil {
			t.Fatalf("replay %d: %v", m.ID, err)
		}
	}

	rows := sheet.Rows()
	if len(rows) != 2 || rows[0].ID != 7 || rows[1].ID != 8 {
		t.Fatalf("replayed backlog duplicated rows: %+v", rows)
	}
}

func TestExportWorker_RejectedMovementIsPermanent(t *testing.T) {
	w := NewExportWorker(memory.New())
	m := movement(4, 2)
	m.Description = strings.Repeat("r", core.MaxDescriptionLength+1)

	err := w.HandleMovementEvent(context.Background(), amqp.NewMovementEvent(amqp.ActionRecorded, m))
	if !errors.Is(err, amqp.ErrPermanent) || !errors.Is(err, core.ErrInvalidText) {
		t.Fatalf("err = %v, want permanent invalid text", err)
	}
}
