package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

func newMigrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, m := range db.Migrations() {
					fmt.Fprintf(out, "%03d %s (%d statements)\n", m.Version, m.Name, len(m.Statements))
				}
				return nil
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			applied, err := db.Migrate(cmd.Context(), pool, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema up to date")
				return nil
			}
			fmt.Fprintf(out, "applied %d migration(s), now at version %d\n", len(applied), applied[len(applied)-1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print known migrations without connecting")
	return cmd
}
