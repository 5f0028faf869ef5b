package main

import (
	"github.com/spf13/cobra"

	"pomodoro/timerd/internal/config"
)

type rootOptions struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "timerd",
		Short: "Pomodoro timer daemon",
		Long: `timerd runs one authoritative Pomodoro timer per user behind an HTTP API
and a websocket stream, and records every focus session in SQLite.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "timer defaults file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	return cmd
}

// load reads the environment and applies command line overrides.
func (o *rootOptions) load() config.Config {
	cfg := config.Load()
	if o.configPath != "" {
		cfg.ConfigFile = o.configPath
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg
}
