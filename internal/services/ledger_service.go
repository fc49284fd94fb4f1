package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/storage"
)

// DefaultHistoryLimit caps the unfiltered journal view.
const DefaultHistoryLimit = 50

// MovementPublisher receives journal changes after they are committed.
type MovementPublisher interface {
	PublishMovementEvent(ctx context.Context, ev *amqp.MovementEvent) error
}

type (
	TransactionRequest struct {
		Account     core.AccountKind
		Amount      decimal.Decimal
		Direction   core.Direction
		Description string
		Date        core.Date // zero means today
	}

	IncomeRequest struct {
		Account        core.AccountKind
		Gross          decimal.Decimal
		Description    string
		ApplyDeduction bool
		Date           core.Date
	}

	// Receipt is returned by every mutating operation: the journal entries it
	// wrote or removed and the derived view after commit.
	Receipt struct {
		Movements []core.Movement
		Snapshot  core.Snapshot
	}
)

// LedgerService applies every compound ledger operation inside one storage
// transaction and publishes the resulting journal changes.
type LedgerService struct {
	store     storage.Store
	publisher MovementPublisher
	now       func() time.Time
}

type Option func(*LedgerService)

// WithClock overrides the time source used for dates and derived metrics.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store storage.Store, publisher MovementPublisher, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordTransaction applies a plain expense or income to one account.
// The resulting balance may go negative.
func (s *LedgerService) RecordTransaction(ctx context.Context, req TransactionRequest) (*Receipt, error) {
	if err := req.Account.Validate(); err != nil {
		return nil, err
	}
	if err := req.Direction.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = defaultDescription(req.Direction)
	}
	m := core.Movement{
		Date:        s.dateOr(req.Date),
		Description: desc,
		Amount:      req.Amount,
		Kind:        req.Direction.MovementKind(),
		Account:     req.Account,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		recorded, err := s.post(ctx, tx, m)
		if err != nil {
			return err
		}
		receipt.Movements = append(receipt.Movements, recorded)
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"account", req.Account,
		"kind", m.Kind,
		"amount", core.FormatAmount(m.Amount))
	s.publish(ctx, amqp.ActionRecorded, receipt.Movements...)
	return &receipt, nil
}

// RecordIncome records an income, optionally net of the configured payroll
// deduction rate.
func (s *LedgerService) RecordIncome(ctx context.Context, req IncomeRequest) (*Receipt, error) {
	if err := req.Account.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateAmount(req.Gross); err != nil {
		return nil, err
	}

	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = defaultDescription(core.Income)
	}

	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		amount := req.Gross
		description := desc
		if req.ApplyDeduction {
			settings, err := tx.Settings(ctx)
			if err != nil {
				return err
			}
			amount = core.ApplyDeduction(req.Gross, settings.DeductionRate)
			if err := core.ValidateAmount(amount); err != nil {
				return err
			}
			description = core.ComposeDescription("", desc, fmt.Sprintf(" (deduction %s%%)", settings.DeductionRate.String()))
		}

		m := core.Movement{
			Date:        s.dateOr(req.Date),
			Description: description,
			Amount:      amount,
			Kind:        core.KindIncome,
			Account:     req.Account,
		}
		if err := m.Validate(); err != nil {
			return err
		}
		recorded, err := s.post(ctx, tx, m)
		if err != nil {
			return err
		}
		receipt.Movements = append(receipt.Movements, recorded)
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record income: %w", err)
	}

	slog.InfoContext(ctx, "Income recorded",
		"account", req.Account,
		"amount", core.FormatAmount(receipt.Movements[0].Amount),
		"deduction", req.ApplyDeduction)
	s.publish(ctx, amqp.ActionRecorded, receipt.Movements...)
	return &receipt, nil
}

// Transfer moves amount from the vault to the operational account as two
// journal entries written together.
func (s *LedgerService) Transfer(ctx context.Context, amount decimal.Decimal) (*Receipt, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		settings, err := tx.Settings(ctx)
		if err != nil {
			return err
		}
		today := s.today()
		for _, m := range []core.Movement{
			{Date: today, Description: core.ComposeDescription("Transfer to ", settings.OperationalName, ""), Amount: amount, Kind: core.KindExpense, Account: core.Vault},
			{Date: today, Description: core.ComposeDescription("Transfer from ", settings.VaultName, ""), Amount: amount, Kind: core.KindIncome, Account: core.Operational},
		} {
			recorded, err := s.post(ctx, tx, m)
			if err != nil {
				return err
			}
			receipt.Movements = append(receipt.Movements, recorded)
		}
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer completed", "amount", core.FormatAmount(amount))
	s.publish(ctx, amqp.ActionRecorded, receipt.Movements...)
	return &receipt, nil
}

// ToggleObligation marks an obligation paid or unpaid. Paying debits the
// vault; unpaying credits it back, even if it was never paid.
func (s *LedgerService) ToggleObligation(ctx context.Context, id int64, paid bool) (*Receipt, error) {
	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		o, err := tx.GetObligation(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.SetObligationPaid(ctx, id, paid); err != nil {
			return err
		}

		m := core.Movement{
			Date:    s.today(),
			Amount:  o.Amount,
			Account: core.Vault,
		}
		if paid {
			m.Description, m.Kind = core.ComposeDescription("Obligation payment: ", o.Name, ""), core.KindExpense
		} else {
			m.Description, m.Kind = core.ComposeDescription("Obligation refund: ", o.Name, ""), core.KindIncome
		}
		recorded, err := s.post(ctx, tx, m)
		if err != nil {
			return err
		}
		receipt.Movements = append(receipt.Movements, recorded)
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("toggle obligation %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Obligation toggled", "obligation_id", id, "paid", paid)
	s.publish(ctx, amqp.ActionRecorded, receipt.Movements...)
	return &receipt, nil
}

// FundGoal moves amount from the vault into a goal.
func (s *LedgerService) FundGoal(ctx context.Context, id int64, amount decimal.Decimal) (*Receipt, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return nil, err
	}
	return s.moveGoal(ctx, "fund goal", id, func(tx storage.Tx, g core.Goal) (core.Movement, error) {
		if _, err := tx.AdjustGoal(ctx, id, amount); err != nil {
			return core.Movement{}, err
		}
		return core.Movement{
			Description: core.ComposeDescription("Goal contribution: ", g.Name, ""),
			Amount:      amount,
			Kind:        core.KindSaving,
			Account:     core.Vault,
		}, nil
	})
}

// WithdrawGoal returns amount from a goal to the vault. Withdrawing more than
// the accumulated amount fails with ErrInsufficientFunds.
func (s *LedgerService) WithdrawGoal(ctx context.Context, id int64, amount decimal.Decimal) (*Receipt, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return nil, err
	}
	return s.moveGoal(ctx, "withdraw goal", id, func(tx storage.Tx, g core.Goal) (core.Movement, error) {
		if amount.GreaterThan(g.AccumulatedAmount) {
			return core.Movement{}, fmt.Errorf("%w: goal %q holds %s", core.ErrInsufficientFunds, g.Name, core.FormatAmount(g.AccumulatedAmount))
		}
		if _, err := tx.AdjustGoal(ctx, id, amount.Neg()); err != nil {
			return core.Movement{}, err
		}
		return core.Movement{
			Description: core.ComposeDescription("Goal emergency withdrawal: ", g.Name, ""),
			Amount:      amount,
			Kind:        core.KindIncome,
			Account:     core.Vault,
		}, nil
	})
}

func (s *LedgerService) moveGoal(ctx context.Context, op string, id int64, apply func(storage.Tx, core.Goal) (core.Movement, error)) (*Receipt, error) {
	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		m, err := apply(tx, g)
		if err != nil {
			return err
		}
		m.Date = s.today()
		recorded, err := s.post(ctx, tx, m)
		if err != nil {
			return err
		}
		receipt.Movements = append(receipt.Movements, recorded)
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}

	m := receipt.Movements[0]
	slog.InfoContext(ctx, "Goal updated", "goal_id", id, "kind", m.Kind, "amount", core.FormatAmount(m.Amount))
	s.publish(ctx, amqp.ActionRecorded, receipt.Movements...)
	return &receipt, nil
}

// DeleteGoal removes a goal, refunding anything it accumulated to the vault.
func (s *LedgerService) DeleteGoal(ctx context.Context, id int64) (*Receipt, error) {
	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		if g.AccumulatedAmount.IsPositive() {
			recorded, err := s.post(ctx, tx, core.Movement{
				Date:        s.today(),
				Description: core.ComposeDescription("Goal removed: ", g.Name, ""),
				Amount:      g.AccumulatedAmount,
				Kind:        core.KindIncome,
				Account:     core.Vault,
			})
			if err != nil {
				return err
			}
			receipt.Movements = append(receipt.Movements, recorded)
		}
		if err := tx.DeleteGoal(ctx, id); err != nil {
			return err
		}
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete goal %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Goal deleted", "goal_id", id, "refunds", len(receipt.Movements))
	s.publish(ctx, amqp.ActionRecorded, receipt.Movements...)
	return &receipt, nil
}

// ReverseMovement undoes a journal entry on the account it was recorded
// against and erases it.
func (s *LedgerService) ReverseMovement(ctx context.Context, id int64) (*Receipt, error) {
	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		m, err := tx.DeleteMovement(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.AdjustBalance(ctx, m.Account, m.SignedAmount().Neg()); err != nil {
			return err
		}
		receipt.Movements = append(receipt.Movements, m)
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reverse movement %d: %w", id, err)
	}

	m := receipt.Movements[0]
	slog.InfoContext(ctx, "Movement reversed",
		"movement_id", id,
		"account", m.Account,
		"kind", m.Kind,
		"amount", core.FormatAmount(m.Amount))
	s.publish(ctx, amqp.ActionReversed, receipt.Movements...)
	return &receipt, nil
}

// NewMonthRollover marks every obligation unpaid. Balances and the journal
// are not touched.
func (s *LedgerService) NewMonthRollover(ctx context.Context) (*Receipt, error) {
	var (
		receipt Receipt
		reset   int64
	)
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var err error
		if reset, err = tx.ResetObligations(ctx); err != nil {
			return err
		}
		if err := tx.SetMeta(ctx, storage.KeyLastRollover, core.DateOf(s.now()).MonthKey()); err != nil {
			return err
		}
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("month rollover: %w", err)
	}

	slog.InfoContext(ctx, "Month rollover applied", "obligations_reset", reset)
	return &receipt, nil
}

// RolloverDue reports whether no rollover has been applied in now's month.
// A ledger that never rolled over adopts now's month as its baseline and is
// not due: obligations paid earlier this month stay paid.
func (s *LedgerService) RolloverDue(ctx context.Context, now time.Time) (bool, error) {
	month := core.DateOf(now).MonthKey()
	var due bool
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		last, found, err := tx.GetMeta(ctx, storage.KeyLastRollover)
		if err != nil {
			return err
		}
		if !found || last == "" {
			return tx.SetMeta(ctx, storage.KeyLastRollover, month)
		}
		due = last != month
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read last rollover: %w", err)
	}
	return due, nil
}

func (s *LedgerService) CreateObligation(ctx context.Context, name string, amount decimal.Decimal, dueDay int) (core.Obligation, error) {
	o := core.Obligation{Name: strings.TrimSpace(name), Amount: amount, DueDay: dueDay}
	if err := o.Validate(); err != nil {
		return core.Obligation{}, err
	}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var err error
		o.ID, err = tx.CreateObligation(ctx, o)
		return err
	})
	if err != nil {
		return core.Obligation{}, fmt.Errorf("create obligation: %w", err)
	}
	slog.InfoContext(ctx, "Obligation created", "obligation_id", o.ID, "name", o.Name)
	return o, nil
}

// DeleteObligation removes an obligation without touching balances.
func (s *LedgerService) DeleteObligation(ctx context.Context, id int64) error {
	if err := s.store.Update(ctx, func(tx storage.Tx) error {
		return tx.DeleteObligation(ctx, id)
	}); err != nil {
		return fmt.Errorf("delete obligation %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Obligation deleted", "obligation_id", id)
	return nil
}

func (s *LedgerService) ListObligations(ctx context.Context) ([]core.Obligation, error) {
	var out []core.Obligation
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListObligations(ctx)
		return err
	})
	return out, err
}

func (s *LedgerService) CreateGoal(ctx context.Context, name string, target decimal.Decimal) (core.Goal, error) {
	g := core.Goal{Name: strings.TrimSpace(name), TargetAmount: target, AccumulatedAmount: decimal.Zero}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var err error
		g.ID, err = tx.CreateGoal(ctx, g)
		return err
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created", "goal_id", g.ID, "name", g.Name)
	return g, nil
}

func (s *LedgerService) ListGoals(ctx context.Context) ([]core.GoalProgress, error) {
	var goals []core.Goal
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		goals, err = tx.ListGoals(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, g.Progress())
	}
	return out, nil
}

func (s *LedgerService) Accounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Accounts(ctx)
		return err
	})
	return out, err
}

// Movements returns journal entries newest first. Without a month filter
// only the most recent DefaultHistoryLimit entries are returned unless a
// limit is given.
func (s *LedgerService) Movements(ctx context.Context, f core.MovementFilter) ([]core.Movement, error) {
	if f.Month != "" {
		if err := core.ValidateMonthKey(f.Month); err != nil {
			return nil, err
		}
	} else if f.Limit <= 0 {
		f.Limit = DefaultHistoryLimit
	}

	var out []core.Movement
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListMovements(ctx, f)
		return err
	})
	return out, err
}

// AllMovements returns the whole journal, newest first.
func (s *LedgerService) AllMovements(ctx context.Context) ([]core.Movement, error) {
	var out []core.Movement
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListMovements(ctx, core.MovementFilter{})
		return err
	})
	return out, err
}

func (s *LedgerService) MovementMonths(ctx context.Context) ([]string, error) {
	var out []string
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.MovementMonths(ctx)
		return err
	})
	return out, err
}

// WeeklyExpenses returns one total per day for the last seven days, today
// included, with zero for days without expenses.
func (s *LedgerService) WeeklyExpenses(ctx context.Context) ([]core.DailyTotal, error) {
	today := s.today()
	since := core.DateOf(today.AddDate(0, 0, -6))

	var totals []core.DailyTotal
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		totals, err = tx.ExpenseTotalsSince(ctx, since)
		return err
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		byDay[t.Date.String()] = t.Total
	}
	out := make([]core.DailyTotal, 0, 7)
	for d := since; !d.After(today.Time); d = core.DateOf(d.AddDate(0, 0, 1)) {
		total, ok := byDay[d.String()]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, core.DailyTotal{Date: d, Total: total})
	}
	return out, nil
}

func (s *LedgerService) Settings(ctx context.Context) (core.Settings, error) {
	var out core.Settings
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Settings(ctx)
		return err
	})
	return out, err
}

// UpdateSettings renames both accounts and stores the deduction rate and
// alert threshold.
func (s *LedgerService) UpdateSettings(ctx context.Context, settings core.Settings) (*Receipt, error) {
	settings.VaultName = strings.TrimSpace(settings.VaultName)
	settings.OperationalName = strings.TrimSpace(settings.OperationalName)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var receipt Receipt
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.SaveSettings(ctx, settings); err != nil {
			return err
		}
		var err error
		receipt.Snapshot, err = s.snapshot(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	slog.InfoContext(ctx, "Settings updated",
		"vault_name", settings.VaultName,
		"operational_name", settings.OperationalName)
	return &receipt, nil
}

// Snapshot computes the derived view of the current ledger state.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		snap, err = s.snapshot(ctx, tx)
		return err
	})
	return snap, err
}

func (s *LedgerService) snapshot(ctx context.Context, tx storage.Tx) (core.Snapshot, error) {
	accounts, err := tx.Accounts(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	obligations, err := tx.ListObligations(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	goals, err := tx.ListGoals(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	settings, err := tx.Settings(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.BuildSnapshot(s.now(), accounts, obligations, goals, settings), nil
}

// post applies a movement to its account and appends it to the journal.
// Nothing reaches the journal that the export target would refuse.
func (s *LedgerService) post(ctx context.Context, tx storage.Tx, m core.Movement) (core.Movement, error) {
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	if _, err := tx.AdjustBalance(ctx, m.Account, m.SignedAmount()); err != nil {
		return core.Movement{}, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	id, err := tx.AppendMovement(ctx, m)
	if err != nil {
		return core.Movement{}, err
	}
	m.ID = id
	return m, nil
}

func (s *LedgerService) publish(ctx context.Context, action amqp.Action, movements ...core.Movement) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping movement events")
		return
	}
	for _, m := range movements {
		if err := s.publisher.PublishMovementEvent(ctx, amqp.NewMovementEvent(action, m)); err != nil {
			// The ledger change is committed; the export can be rebuilt by resync.
			slog.ErrorContext(ctx, "Failed to publish movement event",
				"movement_id", m.ID,
				"action", action,
				"error", err)
		}
	}
}

func (s *LedgerService) today() core.Date {
	return core.DateOf(s.now())
}

func (s *LedgerService) dateOr(d core.Date) core.Date {
	if d.IsZero() {
		return s.today()
	}
	return d
}

func defaultDescription(d core.Direction) string {
	if d == core.Income {
		return "Income"
	}
	return "Expense"
}
