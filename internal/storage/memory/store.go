// Package memory is an in-process ledger store for development and tests.
// Updates run against a copy of the state which replaces the live one only
// when the function succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ storage.Store = (*Store)(nil)

type state struct {
	accounts    map[core.AccountKind]core.Account
	movements   []core.Movement
	obligations []core.Obligation
	goals       []core.Goal
	meta        map[string]string
	nextID      map[string]int64
}

// New returns a store seeded like a freshly migrated database.
func New() *Store {
	return NewWithSettings(core.DefaultSettings())
}

func NewWithSettings(s core.Settings) *Store {
	st := &state{
		accounts: map[core.AccountKind]core.Account{
			core.Vault:       {Kind: core.Vault, Name: s.VaultName, Balance: decimal.Zero},
			core.Operational: {Kind: core.Operational, Name: s.OperationalName, Balance: decimal.Zero},
		},
		meta: map[string]string{
			storage.KeyDeductionRate:  s.DeductionRate.String(),
			storage.KeyAlertThreshold: s.AlertThreshold.String(),
		},
		nextID: map[string]int64{},
	}
	return &Store{state: st}
}

func (s *Store) View(_ context.Context, fn func(storage.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{st: s.state.clone()})
}

func (s *Store) Update(_ context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Close() error { return nil }

func (st *state) clone() *state {
	c := &state{
		accounts:    make(map[core.AccountKind]core.Account, len(st.accounts)),
		movements:   append([]core.Movement(nil), st.movements...),
		obligations: append([]core.Obligation(nil), st.obligations...),
		goals:       append([]core.Goal(nil), st.goals...),
		meta:        make(map[string]string, len(st.meta)),
		nextID:      make(map[string]int64, len(st.nextID)),
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.meta {
		c.meta[k] = v
	}
	for k, v := range st.nextID {
		c.nextID[k] = v
	}
	return c
}

func (st *state) next(table string) int64 {
	st.nextID[table]++
	return st.nextID[table]
}

type tx struct {
	st *state
}

func (t *tx) Accounts(context.Context) ([]core.Account, error) {
	out := make([]core.Account, 0, 2)
	for _, k := range []core.AccountKind{core.Vault, core.Operational} {
		if a, ok := t.st.accounts[k]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *tx) Balance(_ context.Context, kind core.AccountKind) (decimal.Decimal, error) {
	return t.st.accounts[kind].Balance, nil
}

func (t *tx) AdjustBalance(_ context.Context, kind core.AccountKind, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := kind.Validate(); err != nil {
		return decimal.Zero, err
	}
	a, ok := t.st.accounts[kind]
	if !ok {
		a = core.Account{Kind: kind, Name: core.DefaultSettings().Name(kind)}
	}
	a.Balance = a.Balance.Add(delta)
	t.st.accounts[kind] = a
	return a.Balance, nil
}

func (t *tx) RenameAccount(_ context.Context, kind core.AccountKind, name string) error {
	a, ok := t.st.accounts[kind]
	if !ok {
		return fmt.Errorf("account %s: %w", kind, core.ErrNotFound)
	}
	a.Name = name
	t.st.accounts[kind] = a
	return nil
}

func (t *tx) AppendMovement(_ context.Context, m core.Movement) (int64, error) {
	m.ID = t.st.next("movements")
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	t.st.movements = append(t.st.movements, m)
	return m.ID, nil
}

func (t *tx) GetMovement(_ context.Context, id int64) (core.Movement, error) {
	for _, m := range t.st.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return core.Movement{}, fmt.Errorf("movement %d: %w", id, core.ErrNotFound)
}

func (t *tx) DeleteMovement(_ context.Context, id int64) (core.Movement, error) {
	for i, m := range t.st.movements {
		if m.ID == id {
			t.st.movements = append(t.st.movements[:i:i], t.st.movements[i+1:]...)
			return m, nil
		}
	}
	return core.Movement{}, fmt.Errorf("movement %d: %w", id, core.ErrNotFound)
}

func (t *tx) ListMovements(_ context.Context, f core.MovementFilter) ([]core.Movement, error) {
	var out []core.Movement
	for _, m := range t.st.movements {
		if f.Month != "" && m.Date.MonthKey() != f.Month {
			continue
		}
		out = append(out, m)
	}
	sortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (t *tx) MovementMonths(context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var months []string
	for _, m := range t.st.movements {
		key := m.Date.MonthKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}

func (t *tx) ExpenseTotalsSince(_ context.Context, since core.Date) ([]core.DailyTotal, error) {
	byDay := map[string]*core.DailyTotal{}
	var totals []*core.DailyTotal
	for _, m := range t.st.movements {
		if m.Kind != core.KindExpense || m.Date.Before(since.Time) {
			continue
		}
		key := m.Date.String()
		dt, ok := byDay[key]
		if !ok {
			dt = &core.DailyTotal{Date: m.Date, Total: decimal.Zero}
			byDay[key] = dt
			totals = append(totals, dt)
		}
		dt.Total = dt.Total.Add(m.Amount)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date.Time) })

	out := make([]core.DailyTotal, 0, len(totals))
	for _, dt := range totals {
		out = append(out, *dt)
	}
	return out, nil
}

func (t *tx) CreateObligation(_ context.Context, o core.Obligation) (int64, error) {
	o.ID = t.st.next("obligations")
	t.st.obligations = append(t.st.obligations, o)
	return o.ID, nil
}

func (t *tx) GetObligation(_ context.Context, id int64) (core.Obligation, error) {
	i := t.obligationIndex(id)
	if i < 0 {
		return core.Obligation{}, fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
	}
	return t.st.obligations[i], nil
}

func (t *tx) ListObligations(context.Context) ([]core.Obligation, error) {
	out := append([]core.Obligation(nil), t.st.obligations...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDay != out[j].DueDay {
			return out[i].DueDay < out[j].DueDay
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) SetObligationPaid(_ context.Context, id int64, paid bool) error {
	i := t.obligationIndex(id)
	if i < 0 {
		return fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
	}
	t.st.obligations[i].Paid = paid
	return nil
}

func (t *tx) ResetObligations(context.Context) (int64, error) {
	for i := range t.st.obligations {
		t.st.obligations[i].Paid = false
	}
	return int64(len(t.st.obligations)), nil
}

func (t *tx) DeleteObligation(_ context.Context, id int64) error {
	i := t.obligationIndex(id)
	if i < 0 {
		return fmt.Errorf("obligation %d: %w", id, core.ErrNotFound)
	}
	t.st.obligations = append(t.st.obligations[:i:i], t.st.obligations[i+1:]...)
	return nil
}

func (t *tx) obligationIndex(id int64) int {
	for i, o := range t.st.obligations {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (t *tx) CreateGoal(_ context.Context, g core.Goal) (int64, error) {
	g.ID = t.st.next("goals")
	t.st.goals = append(t.st.goals, g)
	return g.ID, nil
}

func (t *tx) GetGoal(_ context.Context, id int64) (core.Goal, error) {
	i := t.goalIndex(id)
	if i < 0 {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	return t.st.goals[i], nil
}

func (t *tx) ListGoals(context.Context) ([]core.Goal, error) {
	return append([]core.Goal(nil), t.st.goals...), nil
}

func (t *tx) AdjustGoal(_ context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	i := t.goalIndex(id)
	if i < 0 {
		return decimal.Zero, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	t.st.goals[i].AccumulatedAmount = t.st.goals[i].AccumulatedAmount.Add(delta)
	return t.st.goals[i].AccumulatedAmount, nil
}

func (t *tx) DeleteGoal(_ context.Context, id int64) error {
	i := t.goalIndex(id)
	if i < 0 {
		return fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	t.st.goals = append(t.st.goals[:i:i], t.st.goals[i+1:]...)
	return nil
}

func (t *tx) goalIndex(id int64) int {
	for i, g := range t.st.goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (t *tx) Settings(ctx context.Context) (core.Settings, error) {
	s := core.DefaultSettings()
	if a, ok := t.st.accounts[core.Vault]; ok {
		s.VaultName = a.Name
	}
	if a, ok := t.st.accounts[core.Operational]; ok {
		s.OperationalName = a.Name
	}
	if v, err := decimal.NewFromString(t.st.meta[storage.KeyDeductionRate]); err == nil {
		s.DeductionRate = v
	}
	if v, err := decimal.NewFromString(t.st.meta[storage.KeyAlertThreshold]); err == nil {
		s.AlertThreshold = v
	}
	return s, nil
}

func (t *tx) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := t.RenameAccount(ctx, core.Vault, s.VaultName); err != nil {
		return err
	}
	if err := t.RenameAccount(ctx, core.Operational, s.OperationalName); err != nil {
		return err
	}
	t.st.meta[storage.KeyDeductionRate] = s.DeductionRate.String()
	t.st.meta[storage.KeyAlertThreshold] = s.AlertThreshold.String()
	return nil
}

func (t *tx) GetMeta(_ context.Context, key string) (string, bool, error) {
	v, ok := t.st.meta[key]
	return v, ok, nil
}

func (t *tx) SetMeta(_ context.Context, key, value string) error {
	t.st.meta[key] = value
	return nil
}

func sortNewestFirst(ms []core.Movement) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Date.Equal(ms[j].Date.Time) {
			return ms[i].Date.After(ms[j].Date.Time)
		}
		return ms[i].ID > ms[j].ID
	})
}
