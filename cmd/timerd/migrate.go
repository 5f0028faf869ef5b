package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pomodoro/timerd/internal/db"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.load()
			database, err := db.OpenSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := db.RunMigrations(database, cfg.MigrationsDir)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}
