package core

import (
	"testing"
	"time"
)

func TestDaysRemaining(t *testing.T) {
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC), 1},
		{time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC), 30},
		{time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 1},
	}
	for _, tc := range cases {
		if got := DaysRemaining(tc.now); got != tc.want {
			t.Fatalf("DaysRemaining(%s) = %d, want %d", tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestDailyAllowanceLastDayOfMonth(t *testing.T) {
	lastDay := time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC)
	days := DaysRemaining(lastDay)

	if got := DailyAllowance(dec("60"), days); !got.Equal(dec("60")) {
		t.Fatalf("allowance = %s, want 60", got)
	}

	negative := DailyAllowance(dec("-10"), days)
	if !negative.IsNegative() {
		t.Fatalf("expected negative allowance, got %s", negative)
	}
	for _, threshold := range []string{"0", "10", "1000"} {
		if got := ClassifyAlert(negative, dec(threshold)); got != AlertCritical {
			t.Fatalf("threshold %s: expected critical, got %s", threshold, got)
		}
	}

	if got := DailyAllowance(dec("60"), 0); !got.IsZero() {
		t.Fatalf("zero days must yield zero, got %s", got)
	}
}

func TestClassifyAlert(t *testing.T) {
	cases := []struct {
		allowance, threshold string
		want                 AlertLevel
	}{
		{"-0.01", "10", AlertCritical},
		{"0", "10", AlertWarning},
		{"9.99", "10", AlertWarning},
		{"10", "10", AlertNominal},
		{"0", "0", AlertNominal},
	}
	for _, tc := range cases {
		if got := ClassifyAlert(dec(tc.allowance), dec(tc.threshold)); got != tc.want {
			t.Fatalf("ClassifyAlert(%s, %s) = %s, want %s", tc.allowance, tc.threshold, got, tc.want)
		}
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2025, 4, 21, 12, 0, 0, 0, time.UTC) // 10 days remaining
	accounts := []Account{
		{Kind: Vault, Name: "Savings", Balance: dec("1000")},
		{Kind: Operational, Name: "Wallet", Balance: dec("50")},
	}
	obligations := []Obligation{
		{ID: 1, Name: "Rent", Amount: dec("300"), DueDay: 1, Paid: false},
		{ID: 2, Name: "Phone", Amount: dec("40"), DueDay: 15, Paid: true},
	}
	goals := []Goal{
		{ID: 1, Name: "Bike", TargetAmount: dec("200"), AccumulatedAmount: dec("50")},
		{ID: 2, Name: "Trip", TargetAmount: dec("100"), AccumulatedAmount: dec("150")},
	}

	snap := BuildSnapshot(now, accounts, obligations, goals, DefaultSettings())

	if !snap.PendingObligations.Equal(dec("300")) {
		t.Fatalf("pending = %s", snap.PendingObligations)
	}
	if !snap.VaultFree.Equal(dec("700")) {
		t.Fatalf("vault free = %s", snap.VaultFree)
	}
	if snap.DaysRemaining != 10 || !snap.DailyAllowance.Equal(dec("5")) {
		t.Fatalf("allowance = %s over %d days", snap.DailyAllowance, snap.DaysRemaining)
	}
	if snap.Alert != AlertWarning {
		t.Fatalf("expected warning, got %s", snap.Alert)
	}
	if len(snap.Goals) != 2 || !snap.Goals[0].Percent.Equal(dec("25")) || !snap.Goals[1].Percent.Equal(dec("100")) {
		t.Fatalf("unexpected goal progress %+v", snap.Goals)
	}
	if snap.Vault.Name != "Savings" || snap.Operational.Name != "Wallet" {
		t.Fatalf("account names not carried: %+v %+v", snap.Vault, snap.Operational)
	}
}
