package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Chart of accounts maintenance"}
	var dryRun bool
	seed := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create or update accounts from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			list, err := accounts.LoadSeed(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d accounts valid\n", len(list))
				return nil
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			stored, err := rt.services.Accounts.Seed(cmd.Context(), list)
			if err != nil {
				return err
			}
			for _, acc := range stored {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %-8s %-32s %s\n", acc.ID, acc.Number, acc.Name, acc.Type)
			}
			return nil
		},
	}
	seed.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	cmd.AddCommand(seed)
	return cmd
}

func newMappingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "mappings", Short: "Integration account mappings"}
	set := &cobra.Command{
		Use:   "set <module> <key> <account-id>",
		Short: "Point an integration key at a ledger account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil || accountID <= 0 {
				return fmt.Errorf("invalid account id %q", args[2])
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			m := mappings.AccountMapping{Module: args[0], Key: args[1], AccountID: accountID}
			if err := rt.services.Mappings.Upsert(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s -> %d\n", m.Module, m.Key, m.AccountID)
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}
