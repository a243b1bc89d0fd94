package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/config"
	"github.com/pable/valmetrics/internal/logging"
)

var (
	cfgFile  string
	dbPath   string
	cfg      config.Config
	logClose = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "valmetrics",
	Short: "Valorant match metrics tool",
	Long: `Normalize Henrik v3/v4 match payloads and compute per-player metrics
(KAST, multi-kills, entry duels, clutches, eco, damage efficiency) with a
fallback estimator for matches without round detail.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { logClose() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.valmetrics/config.yaml)")
	pf.String("db", "", "path to SQLite database (default ~/.valmetrics/metrics.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// setup loads configuration and installs the default logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	dbPath = cfg.DB

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, closer, err := logging.NewLogger(os.Stderr, level, cfg.LogFile)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logClose = closer
	slog.Debug("Loaded config", slog.String("db", dbPath), slog.Int("workers", cfg.Workers))
	return nil
}
