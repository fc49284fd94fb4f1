package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cashflow/internal/backend"
	"cashflow/internal/core"
	"cashflow/internal/services"
)

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print balances, obligations, allowance and goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ledger *services.LedgerService, _ *backend.BackendResult) error {
				snap, err := ledger.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				printSnapshot(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}
}

func newRolloverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Mark every obligation unpaid for the new month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ledger *services.LedgerService, _ *backend.BackendResult) error {
				receipt, err := ledger.NewMonthRollover(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Obligations reset for the new month.")
				printSnapshot(cmd.OutOrStdout(), receipt.Snapshot)
				return nil
			})
		},
	}
}

func printSnapshot(w io.Writer, s core.Snapshot) {
	fmt.Fprintf(w, "%-22s %12s\n", s.Vault.Name+":", core.FormatAmount(s.Vault.Balance))
	fmt.Fprintf(w, "%-22s %12s\n", s.Operational.Name+":", core.FormatAmount(s.Operational.Balance))
	fmt.Fprintf(w, "%-22s %12s\n", "Pending obligations:", core.FormatAmount(s.PendingObligations))
	fmt.Fprintf(w, "%-22s %12s\n", "Vault free:", core.FormatAmount(s.VaultFree))
	fmt.Fprintf(w, "%-22s %12s  (%d days left, %s)\n", "Daily allowance:",
		core.FormatAmount(s.DailyAllowance), s.DaysRemaining, s.Alert)
	if len(s.Goals) == 0 {
		return
	}
	fmt.Fprintln(w, "Goals:")
	for _, g := range s.Goals {
		fmt.Fprintf(w, "  %-20s %12s / %s (%s%%)\n", g.Name,
			core.FormatAmount(g.AccumulatedAmount), core.FormatAmount(g.TargetAmount), g.Percent.StringFixed(2))
	}
}
