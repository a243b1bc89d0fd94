package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/aggregator"
	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/report"
)

var trendCompetitive bool

var trendCmd = &cobra.Command{
	Use:   "trend <puuid>",
	Short: "Chronological per-match performance trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().BoolVar(&trendCompetitive, "competitive-only", false, "only show competitive matches (default from config)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	puuid := args[0]
	f := aggregator.Filter{CompetitiveOnly: cfg.CompetitiveOnly}
	if cmd.Flags().Changed("competitive-only") {
		f.CompetitiveOnly = trendCompetitive
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	results, err := db.GetAllPlayerMatchResults(puuid)
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}

	var kept []model.PlayerMatchResult
	for _, r := range results {
		if err := f.Check(r); err != nil {
			if errors.Is(err, aggregator.ErrFilterMismatch) {
				continue
			}
			return err
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matches found")
		return nil
	}

	report.PrintTrendTable(cmd.OutOrStdout(), kept)
	return nil
}
