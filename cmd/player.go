package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/aggregator"
	"github.com/pable/valmetrics/internal/logging"
	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/normalize"
	"github.com/pable/valmetrics/internal/payload"
	"github.com/pable/valmetrics/internal/report"
	"github.com/pable/valmetrics/internal/storage"
)

var (
	playerCompetitive bool
	playerDir         string
	playerCache       string
)

// sessionCache lives as long as the process, so repeated player commands in
// one shell session reuse it.
var sessionCache = aggregator.NewMemoryCache()

// playerCmd is the cobra command for cross-match summaries of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <puuid> [<puuid>...]",
	Short: "Cross-match summary for one or more players",
	Long: `Summarize every stored match of each player: totals, round-weighted KAST,
multi-kills, entry duels, clutches, eco, streaks and per-map records.

With --dir, payload files under that directory are analyzed directly instead
of reading stored results. Per-match results are cached in the database, or
only for the current process with --cache memory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().BoolVar(&playerCompetitive, "competitive-only", false, "only count competitive matches (default from config)")
	playerCmd.Flags().StringVar(&playerDir, "dir", "", "analyze payload files under this directory")
	playerCmd.Flags().StringVar(&playerCache, "cache", "db", "result cache for --dir: db or memory")
}

func resultCache(db *storage.DB, kind string) (aggregator.ResultCache, error) {
	switch kind {
	case "", "db":
		return db, nil
	case "memory":
		return sessionCache, nil
	default:
		return nil, fmt.Errorf("unknown cache %q (want db or memory)", kind)
	}
}

// playerResults returns the per-match results of puuid, from stored rows or
// from a payload source through the cached analyzer.
func playerResults(ctx context.Context, db *storage.DB, cache aggregator.ResultCache, src payload.Source, puuid string, f aggregator.Filter) ([]model.PlayerMatchResult, error) {
	if src == nil {
		return db.GetAllPlayerMatchResults(puuid)
	}
	payloads, err := src.Matches(ctx, puuid)
	if err != nil {
		return nil, err
	}
	analyzer := aggregator.NewCachedAnalyzer(cache, f)
	var out []model.PlayerMatchResult
	for _, p := range payloads {
		m, err := normalize.Parse(p)
		if err != nil {
			slog.Warn(unavailableMsg, logging.ErrAttr(err))
			continue
		}
		r, err := analyzer.Analyze(m, puuid)
		if errors.Is(err, aggregator.ErrPlayerNotInMatch) {
			continue
		}
		if err != nil {
			slog.Warn(unavailableMsg, slog.String("match_id", m.MatchID), logging.ErrAttr(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// runPlayer builds one summary per PUUID and prints the overview, the
// exclusions and per-map records.
func runPlayer(cmd *cobra.Command, args []string) error {
	f := aggregator.Filter{CompetitiveOnly: cfg.CompetitiveOnly}
	if cmd.Flags().Changed("competitive-only") {
		f.CompetitiveOnly = playerCompetitive
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	var src payload.Source
	if playerDir != "" {
		src = payload.DirSource{Dir: playerDir, Workers: cfg.Workers}
	}
	cache, err := resultCache(db, playerCache)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var (
		sums     []model.PlayerSummary
		puuids   []string
		matchIDs []string
		names    = make(map[string]string)
	)
	for _, puuid := range args {
		results, err := playerResults(cmd.Context(), db, cache, src, puuid, f)
		if err != nil {
			return fmt.Errorf("load results for %s: %w", puuid, err)
		}
		if len(results) == 0 {
			cWarn.Fprintf(errOut, "No data found for PUUID %s\n", puuid)
			continue
		}
		s, err := aggregator.Aggregate(results, f)
		if err != nil {
			return fmt.Errorf("aggregate %s: %w", puuid, err)
		}
		if s.Name == "" {
			s.Name = puuid
		}
		names[puuid] = s.Name
		sums = append(sums, s)
		puuids = append(puuids, puuid)

		excluded := make(map[string]bool, len(s.Excluded))
		for _, e := range s.Excluded {
			excluded[e.MatchID] = true
		}
		for _, r := range results {
			if !excluded[r.MatchID] {
				matchIDs = append(matchIDs, r.MatchID)
			}
		}
	}
	if playerCache == "memory" {
		slog.Debug("Session cache", slog.Int("entries", sessionCache.Len()))
	}
	if len(sums) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	report.PrintPlayerSummary(out, sums)
	for _, s := range sums {
		report.PrintExclusions(out, s)
	}

	// Per-map records come from stored rows only.
	if src == nil && (!f.CompetitiveOnly || len(matchIDs) > 0) {
		var ids []string
		if f.CompetitiveOnly {
			ids = matchIDs
		}
		stats, err := db.MapStatsFor(puuids, ids)
		if err != nil {
			return fmt.Errorf("map stats: %w", err)
		}
		if len(stats) > 0 {
			cHead.Fprintf(out, "\n--- Maps ---\n\n")
			report.PrintMapTable(out, stats, names)
		}
	}
	return nil
}
