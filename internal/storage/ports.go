package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Ports implemented by every ledger backend.
type (
	// Tx exposes the ledger tables inside one transaction boundary. Methods
	// return core.ErrNotFound for unknown ids and *core.StorageError for
	// persistence failures.
	Tx interface {
		AccountStore
		Journal
		ObligationStore
		GoalStore
		SettingsStore
	}

	// Store runs functions against a consistent view of the ledger. Update
	// commits only if fn returns nil; otherwise no change is observable.
	Store interface {
		View(ctx context.Context, fn func(Tx) error) error
		Update(ctx context.Context, fn func(Tx) error) error
		Close() error
	}

	AccountStore interface {
		Accounts(ctx context.Context) ([]core.Account, error)
		// Balance returns zero for an account that does not exist.
		Balance(ctx context.Context, kind core.AccountKind) (decimal.Decimal, error)
		AdjustBalance(ctx context.Context, kind core.AccountKind, delta decimal.Decimal) (decimal.Decimal, error)
		RenameAccount(ctx context.Context, kind core.AccountKind, name string) error
	}

	Journal interface {
		AppendMovement(ctx context.Context, m core.Movement) (int64, error)
		GetMovement(ctx context.Context, id int64) (core.Movement, error)
		DeleteMovement(ctx context.Context, id int64) (core.Movement, error)
		// ListMovements orders by date then id, newest first. Limit <= 0 means unlimited.
		ListMovements(ctx context.Context, f core.MovementFilter) ([]core.Movement, error)
		MovementMonths(ctx context.Context) ([]string, error)
		ExpenseTotalsSince(ctx context.Context, since core.Date) ([]core.DailyTotal, error)
	}

	ObligationStore interface {
		CreateObligation(ctx context.Context, o core.Obligation) (int64, error)
		GetObligation(ctx context.Context, id int64) (core.Obligation, error)
		ListObligations(ctx context.Context) ([]core.Obligation, error)
		SetObligationPaid(ctx context.Context, id int64, paid bool) error
		ResetObligations(ctx context.Context) (int64, error)
		DeleteObligation(ctx context.Context, id int64) error
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) (int64, error)
		GetGoal(ctx context.Context, id int64) (core.Goal, error)
		ListGoals(ctx context.Context) ([]core.Goal, error)
		AdjustGoal(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
		DeleteGoal(ctx context.Context, id int64) error
	}

	SettingsStore interface {
		Settings(ctx context.Context) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
		GetMeta(ctx context.Context, key string) (string, bool, error)
		SetMeta(ctx context.Context, key, value string) error
	}
)

// Settings keys shared by every backend.
const (
	KeyDeductionRate  = "deduction_rate"
	KeyAlertThreshold = "alert_threshold"
	KeyLastRollover   = "last_rollover"
)
