package http

import (
	"time"

	"cashflow/internal/core"
	"cashflow/internal/services"
)

// Amounts are rendered as fixed two-decimal strings so clients never see
// float rounding.

type accountView struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type movementView struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Account     string `json:"account"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type obligationView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
	DueDay int    `json:"due_day"`
	Paid   bool   `json:"paid"`
}

type goalView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Target      string `json:"target"`
	Accumulated string `json:"accumulated"`
	Percent     string `json:"percent"`
}

type snapshotView struct {
	Vault              accountView `json:"vault"`
	Operational        accountView `json:"operational"`
	PendingObligations string      `json:"pending_obligations"`
	VaultFree          string      `json:"vault_free"`
	DailyAllowance     string      `json:"daily_allowance"`
	DaysRemaining      int         `json:"days_remaining"`
	Alert              string      `json:"alert"`
	Goals              []goalView  `json:"goals"`
}

type receiptView struct {
	Movements []movementView `json:"movements"`
	Snapshot  snapshotView   `json:"snapshot"`
}

type settingsView struct {
	VaultName       string `json:"vault_name"`
	OperationalName string `json:"operational_name"`
	DeductionRate   string `json:"deduction_rate"`
	AlertThreshold  string `json:"alert_threshold"`
}

type dailyTotalView struct {
	Date  string `json:"date"`
	Total string `json:"total"`
}

func toAccountView(a core.Account) accountView {
	return accountView{Kind: string(a.Kind), Name: a.Name, Balance: core.FormatAmount(a.Balance)}
}

func toMovementView(m core.Movement) movementView {
	v := movementView{
		ID:          m.ID,
		Date:        m.Date.String(),
		Description: m.Description,
		Amount:      core.FormatAmount(m.Amount),
		Kind:        string(m.Kind),
		Account:     string(m.Account),
	}
	if !m.CreatedAt.IsZero() {
		v.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func toMovementViews(ms []core.Movement) []movementView {
	out := make([]movementView, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementView(m))
	}
	return out
}

func toObligationView(o core.Obligation) obligationView {
	return obligationView{ID: o.ID, Name: o.Name, Amount: core.FormatAmount(o.Amount), DueDay: o.DueDay, Paid: o.Paid}
}

func toGoalView(g core.GoalProgress) goalView {
	return goalView{
		ID:          g.ID,
		Name:        g.Name,
		Target:      core.FormatAmount(g.TargetAmount),
		Accumulated: core.FormatAmount(g.AccumulatedAmount),
		Percent:     g.Percent.StringFixed(2),
	}
}

func toSnapshotView(s core.Snapshot) snapshotView {
	v := snapshotView{
		Vault:              toAccountView(s.Vault),
		Operational:        toAccountView(s.Operational),
		PendingObligations: core.FormatAmount(s.PendingObligations),
		VaultFree:          core.FormatAmount(s.VaultFree),
		DailyAllowance:     core.FormatAmount(s.DailyAllowance),
		DaysRemaining:      s.DaysRemaining,
		Alert:              string(s.Alert),
		Goals:              make([]goalView, 0, len(s.Goals)),
	}
	for _, g := range s.Goals {
		v.Goals = append(v.Goals, toGoalView(g))
	}
	return v
}

func toReceiptView(r *services.Receipt) receiptView {
	return receiptView{Movements: toMovementViews(r.Movements), Snapshot: toSnapshotView(r.Snapshot)}
}

func toSettingsView(s core.Settings) settingsView {
	return settingsView{
		VaultName:       s.VaultName,
		OperationalName: s.OperationalName,
		DeductionRate:   s.DeductionRate.String(),
		AlertThreshold:  s.AlertThreshold.String(),
	}
}
