package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	path    string
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer: every compound operation holds the only connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		path:    dbPath,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file backing the repository.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// DataVersion returns SQLite's data_version for the repository connection.
// It changes whenever another connection, typically another process, commits
// to the same file.
func (r *SQLiteRepository) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read data version: %w", err)
	}
	return v, nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStorageError("begin", err)
	}
	defer tx.Rollback()
	return fn(&sqliteTx{q: r.queries.WithTx(tx)})
}

func (r *SQLiteRepository) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStorageError("begin", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{q: r.queries.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		slog.ErrorContext(ctx, "Ledger commit failed", "error", err)
		return core.NewStorageError("commit", err)
	}
	return nil
}

type sqliteTx struct {
	q *Queries
}

func (t *sqliteTx) Accounts(ctx context.Context) ([]core.Account, error) {
	rows, err := t.q.ListAccounts(ctx)
	if err != nil {
		return nil, core.NewStorageError("list accounts", err)
	}
	accounts := make([]core.Account, 0, len(rows))
	for _, a := range rows {
		accounts = append(accounts, core.Account{
			Kind:    core.AccountKind(a.Kind),
			Name:    a.Name,
			Balance: a.Balance,
		})
	}
	return accounts, nil
}

func (t *sqliteTx) Balance(ctx context.Context, kind core.AccountKind) (decimal.Decimal, error) {
	a, err := t.q.GetAccount(ctx, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, core.NewStorageError("get balance", err)
	}
	return a.Balance, nil
}

func (t *sqliteTx) AdjustBalance(ctx context.Context, kind core.AccountKind, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := kind.Validate(); err != nil {
		return decimal.Zero, err
	}
	name := core.DefaultSettings().Name(kind)
	balance := decimal.Zero
	a, err := t.q.GetAccount(ctx, string(kind))
	switch {
	case err == nil:
		name, balance = a.Name, a.Balance
	case !errors.Is(err, sql.ErrNoRows):
		return decimal.Zero, core.NewStorageError("adjust balance", err)
	}

	balance = balance.Add(delta)
	if err := t.q.UpsertBalance(ctx, UpsertBalanceParams{
		Kind:    string(kind),
		Name:    name,
		Balance: balance,
	}); err != nil {
		return decimal.Zero, core.NewStorageError("adjust balance", err)
	}
	return balance, nil
}

func (t *sqliteTx) RenameAccount(ctx context.Context, kind core.AccountKind, name string) error {
	n, err := t.q.RenameAccount(ctx, RenameAccountParams{Name: name, Kind: string(kind)})
	if err != nil {
		return core.NewStorageError("rename account", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", kind, core.ErrNotFound)
	}
	return nil
}

func (t *sqliteTx) AppendMovement(ctx context.Context, m core.Movement) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	id, err := t.q.CreateMovement(ctx, CreateMovementParams{
		Date:        m.Date.String(),
		Description: m.Description,
		Amount:      m.Amount,
		Kind:        string(m.Kind),
		Account:     string(m.Account),
		CreatedAt:   m.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, core.NewStorageError("append movement", err)
	}
	return id, nil
}

func (t *sqliteTx) GetMovement(ctx context.Context, id int64) (core.Movement, error) {
	row, err := t.q.GetMovement(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Movement{}, fmt.Errorf("movement %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Movement{}, core.NewStorageError("get movement", err)
	}
	return toCoreMovement(row)
}

func (t *sqliteTx) DeleteMovement(ctx context.Context, id int64) (core.Movement, error) {
	m, err := t.GetMovement(ctx, id)
	if err != nil {
		return core.Movement{}, err
	}
	if _, err := t.q.DeleteMovement(ctx, id); err != nil {
		return core.Movement{}, core.NewStorageError("delete movement", err)
	}
	return m, nil
}

func (t *sqliteTx) ListMovements(ctx context.Context, f core.MovementFilter) ([]core.Movement, error) {
	limit := int64(f.Limit)
	if limit <= 0 {
		limit = -1
	}

	var (
		rows []Movement
		err  error
	)
	if f.Month == "" {
		rows, err = t.q.ListMovements(ctx, limit)
	} else {
		rows, err = t.q.ListMovementsByMonth(ctx, ListMovementsByMonthParams{Month: f.Month, Limit: limit})
	}
	if err != nil {
		return nil, core.NewStorageError("list movements", err)
	}

	movements := make([]core.Movement, 0, len(rows))
	for _, row := range rows {
		m, err := toCoreMovement(row)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, nil
}

func (t *sqliteTx) MovementMonths(ctx context.Context) ([]string, error) {
	months, err := t.q.ListMovementMonths(ctx)
	if err != nil {
		return nil, core.NewStorageError("list movement months", err)
	}
	return months, nil
}

func (t *sqliteTx) ExpenseTotalsSince(ctx context.Context, since core.Date) ([]core.DailyTotal, error) {
	rows, err := t.q.ListExpensesSince(ctx, since.String())
	if err != nil {
		return nil, core.NewStorageError("list expenses", err)
	}
	return sumByDay(rows)
}

func (t *sqliteTx) CreateObligation(ctx context.Context, o core.Obligation) (int64, error) {
	id, err := t.q.CreateObligation(ctx, CreateObligationParams{
		Name:   o.Name,
		Amount: o.Amount,
		DueDay: int64(o.DueDay),
		Paid:   o.Paid,
	})
	if err != nil {
		return 0, core.NewStorageError("create obligation", err)
	}
	return id, nil
}

func (t *sqliteTx) GetObligation(ctx context.Context, id int64) (core.Obligation, error) {
	row, err := t.q.GetObligation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Obligation{}, fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Obligation{}, core.NewStorageError("get obligation", err)
	}
	return toCoreObligation(row), nil
}

func (t *sqliteTx) ListObligations(ctx context.Context) ([]core.Obligation, error) {
	rows, err := t.q.ListObligations(ctx)
	if err != nil {
		return nil, core.NewStorageError("list obligations", err)
	}
	obligations := make([]core.Obligation, 0, len(rows))
	for _, row := range rows {
		obligations = append(obligations, toCoreObligation(row))
	}
	return obligations, nil
}

func (t *sqliteTx) SetObligationPaid(ctx context.Context, id int64, paid bool) error {
	n, err := t.q.SetObligationPaid(ctx, SetObligationPaidParams{Paid: paid, ID: id})
	if err != nil {
		return core.NewStorageError("set obligation paid", err)
	}
	if n == 0 {
		return fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (t *sqliteTx) ResetObligations(ctx context.Context) (int64, error) {
	n, err := t.q.ResetObligations(ctx)
	if err != nil {
		return 0, core.NewStorageError("reset obligations", err)
	}
	return n, nil
}

func (t *sqliteTx) DeleteObligation(ctx context.Context, id int64) error {
	n, err := t.q.DeleteObligation(ctx, id)
	if err != nil {
		return core.NewStorageError("delete obligation", err)
	}
	if n == 0 {
		return fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (t *sqliteTx) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	id, err := t.q.CreateGoal(ctx, CreateGoalParams{
		Name:              g.Name,
		TargetAmount:      g.TargetAmount,
		AccumulatedAmount: g.AccumulatedAmount,
	})
	if err != nil {
		return 0, core.NewStorageError("create goal", err)
	}
	return id, nil
}

func (t *sqliteTx) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	row, err := t.q.GetGoal(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, core.NewStorageError("get goal", err)
	}
	return core.Goal(row), nil
}

func (t *sqliteTx) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := t.q.ListGoals(ctx)
	if err != nil {
		return nil, core.NewStorageError("list goals", err)
	}
	goals := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		goals = append(goals, core.Goal(row))
	}
	return goals, nil
}

func (t *sqliteTx) AdjustGoal(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	g, err := t.GetGoal(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	accumulated := g.AccumulatedAmount.Add(delta)
	if _, err := t.q.SetGoalAccumulated(ctx, SetGoalAccumulatedParams{AccumulatedAmount: accumulated, ID: id}); err != nil {
		return decimal.Zero, core.NewStorageError("adjust goal", err)
	}
	return accumulated, nil
}

func (t *sqliteTx) DeleteGoal(ctx context.Context, id int64) error {
	n, err := t.q.DeleteGoal(ctx, id)
	if err != nil {
		return core.NewStorageError("delete goal", err)
	}
	if n == 0 {
		return fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (t *sqliteTx) Settings(ctx context.Context) (core.Settings, error) {
	s := core.DefaultSettings()

	accounts, err := t.Accounts(ctx)
	if err != nil {
		return s, err
	}
	for _, a := range accounts {
		switch a.Kind {
		case core.Vault:
			s.VaultName = a.Name
		case core.Operational:
			s.OperationalName = a.Name
		}
	}

	for key, dst := range map[string]*decimal.Decimal{
		KeyDeductionRate:  &s.DeductionRate,
		KeyAlertThreshold: &s.AlertThreshold,
	} {
		raw, ok, err := t.GetMeta(ctx, key)
		if err != nil {
			return s, err
		}
		if !ok {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return s, core.NewStorageError("read settings", fmt.Errorf("%s: %w", key, err))
		}
		*dst = v
	}
	return s, nil
}

func (t *sqliteTx) SaveSettings(ctx context.Context, s core.Settings) error {
	for kind, name := range map[core.AccountKind]string{
		core.Vault:       s.VaultName,
		core.Operational: s.OperationalName,
	} {
		if err := t.RenameAccount(ctx, kind, name); err != nil {
			return err
		}
	}
	if err := t.SetMeta(ctx, KeyDeductionRate, s.DeductionRate.String()); err != nil {
		return err
	}
	return t.SetMeta(ctx, KeyAlertThreshold, s.AlertThreshold.String())
}

func (t *sqliteTx) GetMeta(ctx context.Context, key string) (string, bool, error) {
	v, err := t.q.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, core.NewStorageError("get setting", err)
	}
	return v, true, nil
}

func (t *sqliteTx) SetMeta(ctx context.Context, key, value string) error {
	if err := t.q.UpsertSetting(ctx, UpsertSettingParams{Key: key, Value: value}); err != nil {
		return core.NewStorageError("put setting", err)
	}
	return nil
}

func toCoreMovement(row Movement) (core.Movement, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Movement{}, core.NewStorageError("decode movement", fmt.Errorf("id %d date: %w", row.ID, err))
	}
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Movement{}, core.NewStorageError("decode movement", fmt.Errorf("id %d created_at: %w", row.ID, err))
	}
	return core.Movement{
		ID:          row.ID,
		Date:        date,
		Description: row.Description,
		Amount:      row.Amount,
		Kind:        core.MovementKind(row.Kind),
		Account:     core.AccountKind(row.Account),
		CreatedAt:   createdAt,
	}, nil
}

func toCoreObligation(row Obligation) core.Obligation {
	return core.Obligation{
		ID:     row.ID,
		Name:   row.Name,
		Amount: row.Amount,
		DueDay: int(row.DueDay),
		Paid:   row.Paid,
	}
}

func sumByDay(rows []ListExpensesSinceRow) ([]core.DailyTotal, error) {
	byDay := make(map[string]decimal.Decimal)
	for _, row := range rows {
		byDay[row.Date] = byDay[row.Date].Add(row.Amount)
	}

	totals := make([]core.DailyTotal, 0, len(byDay))
	for day, total := range byDay {
		d, err := core.ParseDate(day)
		if err != nil {
			return nil, core.NewStorageError("decode expense date", err)
		}
		totals = append(totals, core.DailyTotal{Date: d, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date.Time) })
	return totals, nil
}
