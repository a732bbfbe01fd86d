package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/simp-lee/weatherlog/internal/db"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !status {
				if err := db.Migrate(ctx, c.db, c.cfg.Database.Driver, c.log.Logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			}

			statuses, err := db.Status(ctx, c.db, c.cfg.Database.Driver)
			if err != nil {
				return err
			}
			if c.output == "json" {
				return formatJSON(cmd.OutOrStdout(), statuses)
			}
			rows := make([][]string, len(statuses))
			for i, s := range statuses {
				applied := "no"
				if s.Applied {
					applied = "yes"
				}
				rows[i] = []string{strconv.FormatInt(s.Version, 10), s.File, applied}
			}
			formatTable(cmd.OutOrStdout(), []string{"VERSION", "FILE", "APPLIED"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "show migration status instead of migrating")
	return cmd
}
