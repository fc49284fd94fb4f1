package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/storage"
)

func TestUpdateDiscardsFailedChanges(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx storage.Tx) error {
		if _, err := tx.AdjustBalance(ctx, core.Vault, decimal.NewFromInt(100)); err != nil {
			return err
		}
		if _, err := tx.CreateGoal(ctx, core.Goal{Name: "Trip", TargetAmount: decimal.NewFromInt(10)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = s.View(ctx, func(tx storage.Tx) error {
		b, _ := tx.Balance(ctx, core.Vault)
		goals, _ := tx.ListGoals(ctx)
		if !b.IsZero() || len(goals) != 0 {
			t.Fatalf("state leaked from failed update: balance=%s goals=%d", b, len(goals))
		}
		return nil
	})
}

func TestListMovementsOrderAndFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Update(ctx, func(tx storage.Tx) error {
		for _, m := range []core.Movement{
			{Date: core.NewDate(2025, 4, 2), Description: "first", Amount: decimal.NewFromInt(1), Kind: core.KindExpense, Account: core.Operational},
			{Date: core.NewDate(2025, 4, 2), Description: "second", Amount: decimal.NewFromInt(2), Kind: core.KindExpense, Account: core.Operational},
			{Date: core.NewDate(2025, 3, 9), Description: "march", Amount: decimal.NewFromInt(3), Kind: core.KindIncome, Account: core.Vault},
		} {
			if _, err := tx.AppendMovement(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})

	_ = s.View(ctx, func(tx storage.Tx) error {
		all, _ := tx.ListMovements(ctx, core.MovementFilter{})
		if len(all) != 3 || all[0].Description != "second" || all[2].Description != "march" {
			t.Fatalf("unexpected order: %+v", all)
		}
		april, _ := tx.ListMovements(ctx, core.MovementFilter{Month: "2025-04", Limit: 1})
		if len(april) != 1 || april[0].Description != "second" {
			t.Fatalf("unexpected april view: %+v", april)
		}
		months, _ := tx.MovementMonths(ctx)
		if len(months) != 2 || months[0] != "2025-04" {
			t.Fatalf("unexpected months: %v", months)
		}
		totals, _ := tx.ExpenseTotalsSince(ctx, core.NewDate(2025, 4, 1))
		if len(totals) != 1 || !totals[0].Total.Equal(decimal.NewFromInt(3)) {
			t.Fatalf("unexpected totals: %+v", totals)
		}
		return nil
	})
}

func TestNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	checks := map[string]func(storage.Tx) error{
		"movement":   func(tx storage.Tx) error { _, err := tx.DeleteMovement(ctx, 1); return err },
		"obligation": func(tx storage.Tx) error { return tx.SetObligationPaid(ctx, 1, true) },
		"goal":       func(tx storage.Tx) error { _, err := tx.AdjustGoal(ctx, 1, decimal.NewFromInt(1)); return err },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			if err := s.Update(ctx, fn); !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}
