package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
)

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reports", Short: "Print financial reports"}
	var (
		asOf   string
		asJSON bool
	)
	tb := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance at a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(asOf, time.Now())
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			result, err := rt.services.Reports.TrialBalance(cmd.Context(), date)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printTrialBalance(cmd.OutOrStdout(), result)
			return nil
		},
	}
	tb.Flags().StringVar(&asOf, "as-of", "", "cut-off date YYYY-MM-DD (default today)")
	tb.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.AddCommand(tb)
	return cmd
}

func parseDateFlag(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", raw)
	}
	return t, nil
}

func printTrialBalance(w io.Writer, tb reports.TrialBalance) {
	const width = 84
	fmt.Fprintf(w, "TRIAL BALANCE as of %s\n", tb.AsOf.Format("2006-01-02"))
	fmt.Fprintln(w, strings.Repeat("=", width))
	fmt.Fprintf(w, "%-8s %-30s %14s %14s %14s\n", "Number", "Account", "Debit", "Credit", "Closing")
	for _, g := range tb.Groups {
		fmt.Fprintf(w, "%s\n", g.Label)
		for _, a := range g.Accounts {
			name := a.Name
			if len(name) > 30 {
				name = name[:28] + ".."
			}
			fmt.Fprintf(w, "%-8s %-30s %14.2f %14.2f %14.2f\n", a.Number, name, a.Debit, a.Credit, a.Closing)
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", width))
	fmt.Fprintf(w, "%-39s %14.2f %14.2f %14.2f\n", "Total", tb.TotalDebit, tb.TotalCredit, tb.TotalClosing)
	if tb.Balanced {
		fmt.Fprintln(w, "[BALANCED]")
	} else {
		fmt.Fprintln(w, "[UNBALANCED]")
	}
}
