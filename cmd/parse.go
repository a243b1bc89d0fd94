package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/logging"
	"github.com/pable/valmetrics/internal/normalize"
	"github.com/pable/valmetrics/internal/payload"
	"github.com/pable/valmetrics/internal/report"
	"github.com/pable/valmetrics/internal/storage"
)

var (
	parsePlayer      string
	parseWorkers     int
	parseForce       bool
	parseQuiet       bool
	parseReanalyze   bool
	parseCompetitive bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <payload|dir>...",
	Short: "Analyze match payload files and store the results",
	Long: `Load one or more match payloads (.json, .json.gz, .json.zst; a directory is
scanned recursively), normalize v3/v4 layouts, compute every player's
metrics and store them. Matches already stored are skipped unless --force.

With --reanalyze the arguments are stored match id prefixes (none means every
stored match): the engine runs again on the payload kept in the database and
the stored results are replaced.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if parseReanalyze {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parsePlayer, "player", "", "focus player PUUID")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "parallel file loads and analyses (default from config)")
	parseCmd.Flags().BoolVar(&parseForce, "force", false, "re-analyze and replace matches already stored")
	parseCmd.Flags().BoolVarP(&parseQuiet, "quiet", "q", false, "only print status lines")
	parseCmd.Flags().BoolVar(&parseReanalyze, "reanalyze", false, "re-run stored matches from their kept payloads")
	parseCmd.Flags().BoolVar(&parseCompetitive, "competitive-only", false, "skip payloads that are not competitive matches")
}

// fileRefs resolves file and directory arguments into payload refs. Files
// that fail to load are reported and skipped.
func fileRefs(cmd *cobra.Command, args []string, workers int) ([]payloadRef, error) {
	paths, err := expandPaths(args)
	if err != nil {
		return nil, fmt.Errorf("resolve inputs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no payload files under %v", args)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loading %d file(s) with %d worker(s)...\n", len(paths), workers)
	files, err := payload.LoadFiles(cmd.Context(), paths, workers)
	if err != nil {
		return nil, err
	}

	var refs []payloadRef
	for _, f := range files {
		if f.Err != nil {
			slog.Warn("Failed to load payload", slog.String("path", f.Path), logging.ErrAttr(f.Err))
			cError.Fprintf(out, "✗ %s: %v\n", f.Path, f.Err)
			continue
		}
		for _, p := range f.Payloads {
			refs = append(refs, payloadRef{source: f.Path, payload: p})
		}
	}
	return refs, nil
}

func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := payload.DirSource{Dir: arg}.Files()
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	workers := cfg.Workers
	if parseWorkers > 0 {
		workers = parseWorkers
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	var refs []payloadRef
	force := parseForce
	if parseReanalyze {
		if refs, err = storedRefs(db, args); err != nil {
			return err
		}
		force = true
		fmt.Fprintf(out, "Re-analyzing %d stored match(es)...\n", len(refs))
	} else if refs, err = fileRefs(cmd, args, workers); err != nil {
		return err
	}

	var screened int
	if parseCompetitive {
		kept := refs[:0]
		for _, ref := range refs {
			if competitivePayload(ref.payload) {
				kept = append(kept, ref)
				continue
			}
			screened++
			cMuted.Fprintf(out, "• %s skipped: not a competitive match\n", ref.source)
		}
		refs = kept
	}

	items, err := analyzeAll(cmd.Context(), refs, workers)
	if err != nil {
		return err
	}

	var ok, skipped, failed int
	for _, a := range items {
		if a.err != nil {
			failed++
			var schemaErr *normalize.SchemaError
			if errors.As(a.err, &schemaErr) {
				slog.Warn("Rejected payload", slog.String("path", a.source), slog.String("field", schemaErr.Field), logging.ErrAttr(a.err))
			} else {
				slog.Error("Failed to analyze payload", slog.String("path", a.source), logging.ErrAttr(a.err))
			}
			cError.Fprintf(out, "✗ %s: %s\n", a.source, unavailableMsg)
			continue
		}

		stored, err := store(db, a, force)
		if err != nil {
			return fmt.Errorf("store %s: %w", a.match.MatchID, err)
		}
		if !stored {
			skipped++
			cMuted.Fprintf(out, "• %s already stored, showing stored results\n", a.match.MatchID)
			if !parseQuiet {
				if err := showMatch(cmd, db, a.match.MatchID, parsePlayer); err != nil {
					return err
				}
			}
			continue
		}
		ok++
		cOK.Fprintf(out, "✓ %s  %s  %s\n", a.match.MatchID, a.summary.MapName, a.summary.Mode)
		if len(a.match.Issues) > 0 {
			cWarn.Fprintf(out, "  partial data: %v\n", a.match.Issues)
		}
		if !parseQuiet {
			report.PrintMatchSummary(out, a.summary)
			report.PrintPlayerTable(out, a.results, parsePlayer)
			report.PrintWarnings(out, a.results)
		}
	}

	fmt.Fprintf(out, "\n%d stored, %d already present, %d failed", ok, skipped, failed)
	if screened > 0 {
		fmt.Fprintf(out, ", %d not competitive", screened)
	}
	fmt.Fprintln(out)
	return nil
}

func showMatch(cmd *cobra.Command, db *storage.DB, matchID, focus string) error {
	m, err := db.GetMatchByPrefix(matchID)
	if err != nil || m == nil {
		return fmt.Errorf("match not found: %s", matchID)
	}
	results, err := db.GetPlayerMatchResults(m.MatchID)
	if err != nil {
		return fmt.Errorf("get player results: %w", err)
	}
	out := cmd.OutOrStdout()
	report.PrintMatchSummary(out, *m)
	report.PrintPlayerTable(out, results, focus)
	report.PrintWarnings(out, results)
	return nil
}
