package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AlertNominal  AlertLevel = "nominal"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// AlertLevel classifies the daily allowance against the configured threshold.
type AlertLevel string

// GoalProgress is a goal with its completion percentage.
type GoalProgress struct {
	Goal
	Percent decimal.Decimal // capped at 100
}

// Snapshot is the derived view returned after every ledger operation.
type Snapshot struct {
	Vault              Account
	Operational        Account
	PendingObligations decimal.Decimal
	VaultFree          decimal.Decimal
	DailyAllowance     decimal.Decimal
	DaysRemaining      int
	Alert              AlertLevel
	Goals              []GoalProgress
}

// DaysRemaining counts the days left in now's month, today included.
func DaysRemaining(now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return lastDay - now.Day() + 1
}

// DailyAllowance spreads the operational balance over the remaining days.
// A non-positive day count yields zero.
func DailyAllowance(operational decimal.Decimal, daysRemaining int) decimal.Decimal {
	if daysRemaining <= 0 {
		return decimal.Zero
	}
	return operational.Div(decimal.NewFromInt(int64(daysRemaining)))
}

// VaultFree is the vault balance not reserved for unpaid obligations.
func VaultFree(vault decimal.Decimal, obligations []Obligation) decimal.Decimal {
	return vault.Sub(PendingTotal(obligations))
}

// PendingTotal sums the amounts of unpaid obligations.
func PendingTotal(obligations []Obligation) decimal.Decimal {
	total := decimal.Zero
	for _, o := range obligations {
		if !o.Paid {
			total = total.Add(o.Amount)
		}
	}
	return total
}

// ClassifyAlert maps a daily allowance onto an alert level. A negative
// allowance is critical regardless of threshold.
func ClassifyAlert(allowance, threshold decimal.Decimal) AlertLevel {
	switch {
	case allowance.IsNegative():
		return AlertCritical
	case allowance.LessThan(threshold):
		return AlertWarning
	default:
		return AlertNominal
	}
}

// Progress computes the display percentage of a goal.
func (g Goal) Progress() GoalProgress {
	pct := decimal.Zero
	if g.TargetAmount.IsPositive() {
		pct = g.AccumulatedAmount.Div(g.TargetAmount).Mul(hundred).Round(2)
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return GoalProgress{Goal: g, Percent: pct}
}

// BuildSnapshot derives the dashboard view from raw ledger state.
func BuildSnapshot(now time.Time, accounts []Account, obligations []Obligation, goals []Goal, settings Settings) Snapshot {
	snap := Snapshot{
		Vault:       Account{Kind: Vault, Name: settings.VaultName},
		Operational: Account{Kind: Operational, Name: settings.OperationalName},
	}
	for _, a := range accounts {
		switch a.Kind {
		case Vault:
			snap.Vault = a
		case Operational:
			snap.Operational = a
		}
	}

	snap.PendingObligations = PendingTotal(obligations)
	snap.VaultFree = snap.Vault.Balance.Sub(snap.PendingObligations)
	snap.DaysRemaining = DaysRemaining(now)
	allowance := DailyAllowance(snap.Operational.Balance, snap.DaysRemaining)
	snap.Alert = ClassifyAlert(allowance, settings.AlertThreshold)
	snap.DailyAllowance = allowance.Round(2)

	snap.Goals = make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		snap.Goals = append(snap.Goals, g.Progress())
	}
	return snap
}
