package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "prepday",
	Short: "Daily exam practice planner",
	Long: "prepday assigns a daily practice set of listening and reading modules, " +
		"balanced toward a time budget and carrying unfinished work into the next day.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToday(cmd, true)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides PREPDAY_DB env var)")
	pf.String("config", "", "Path to TOML config file (default $XDG_CONFIG_HOME/prepday/config.toml)")
	pf.StringP("user", "u", "", "User id (overrides PREPDAY_USER env var)")
	pf.String("backend", "", "User state backend: sqlite, badger, redis or memory")
	pf.String("catalog", "", "Path to a YAML module catalog (default: built-in)")
	pf.String("log", "", "Log mode: dev, prod or quiet")

	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(newDayCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then PREPDAY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
