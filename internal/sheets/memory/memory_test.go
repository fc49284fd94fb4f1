package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

func movement(id int64) core.Movement {
	return core.Movement{
		ID: id, Date: core.NewDate(2025, 1, 1), Description: "t",
		Amount: decimal.NewFromInt(1), Kind: core.KindExpense, Account: core.Vault,
	}
}

func TestSheetAppendDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendMovement(ctx, movement(1))
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	s.AppendMovement(ctx, movement(2))

	if _, err := s.AppendMovement(ctx, core.Movement{}); err == nil {
		t.Error("invalid movement should be rejected")
	}

	if err := s.DeleteMovement(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteMovement(ctx, 1); err != nil {
		t.Fatalf("deleting a missing row should succeed: %v", err)
	}
	rows := s.Rows()
	if len(rows) != 1 || rows[0].ID != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	s.ReplaceMovements(ctx, []core.Movement{movement(5), movement(6), movement(7)})
	if len(s.Rows()) != 3 {
		t.Errorf("replace should rewrite all rows, got %d", len(s.Rows()))
	}
}

func TestSheetAppendIsIdempotentPerID(t *testing.T) {
	s := New()
	ctx := context.Background()

	tests := []struct {
		id      int64
		desc    string
		wantRef string
	}{
		{1, "first", "mem:2"},
		{2, "second", "mem:3"},
		{1, "replayed", "mem:2"},
		{3, "third", "mem:4"},
	}
	for _, tt := range tests {
		m := movement(tt.id)
		m.Description = tt.desc
		ref, err := s.AppendMovement(ctx, m)
		if err != nil {
			t.Fatalf("append %d: %v", tt.id, err)
		}
		if ref != tt.wantRef {
			t.Errorf("append %d: ref = %q, want %q", tt.id, ref, tt.wantRef)
		}
	}

	rows := s.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected one row per movement id, got %d", len(rows))
	}
	if rows[0].ID != 1 || rows[0].Description != "replayed" {
		t.Errorf("replayed entry should overwrite its row in place: %+v", rows[0])
	}
}
