package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/report"
)

var (
	roundsEco    bool
	roundsClutch bool
	roundsKAST   string
)

// roundsCmd is the cobra command for per-round drill-down for one player in one match.
var roundsCmd = &cobra.Command{
	Use:   "rounds <match-id-prefix> <puuid>",
	Short: "Per-round drill-down for one player in one match",
	Args:  cobra.ExactArgs(2),
	RunE:  runRounds,
}

func init() {
	roundsCmd.Flags().BoolVar(&roundsEco, "eco", false, "only show eco rounds")
	roundsCmd.Flags().BoolVar(&roundsClutch, "clutch", false, "only show clutch rounds")
	roundsCmd.Flags().StringVar(&roundsKAST, "kast", "", "filter by KAST: yes or no")
}

// filterRounds applies --eco, --clutch and --kast.
func filterRounds(rows []model.PlayerRoundBreakdown, eco, clutch bool, kast string) []model.PlayerRoundBreakdown {
	var out []model.PlayerRoundBreakdown
	for _, s := range rows {
		if eco && !s.IsEco {
			continue
		}
		if clutch && !s.InClutch {
			continue
		}
		if kast == "yes" && !s.KASTEarned || kast == "no" && s.KASTEarned {
			continue
		}
		out = append(out, s)
	}
	return out
}

// runRounds loads per-round rows for a player in a match and prints the drill-down table.
func runRounds(cmd *cobra.Command, args []string) error {
	prefix, puuid := args[0], args[1]
	if roundsKAST != "" && roundsKAST != "yes" && roundsKAST != "no" {
		return fmt.Errorf("invalid --kast %q: want yes or no", roundsKAST)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	errOut := cmd.ErrOrStderr()
	if m == nil {
		cWarn.Fprintf(errOut, "No match found with id prefix %q\n", prefix)
		return nil
	}

	rows, err := db.GetPlayerRoundStats(m.MatchID, puuid)
	if err != nil {
		return fmt.Errorf("get round stats: %w", err)
	}
	if len(rows) == 0 {
		if !m.HasRounds {
			cWarn.Fprintf(errOut, "Match %s has no round detail; only estimated totals are available.\n", m.MatchID)
		} else {
			cWarn.Fprintf(errOut, "No round data found for player %s in match %s\n", puuid, m.MatchID)
		}
		return nil
	}

	name := puuid
	results, err := db.GetPlayerMatchResults(m.MatchID)
	if err != nil {
		return fmt.Errorf("get player results: %w", err)
	}
	for _, r := range results {
		if r.PUUID == puuid {
			name = r.Name
			if r.Tag != "" {
				name += "#" + r.Tag
			}
			break
		}
	}

	rows = filterRounds(rows, roundsEco, roundsClutch, roundsKAST)
	if len(rows) == 0 {
		fmt.Fprintln(errOut, "No rounds match the given filters.")
		return nil
	}

	out := cmd.OutOrStdout()
	cHead.Fprintf(out, "\n%s on %s (%s)\n\n", name, m.MapName, m.MatchID)
	report.PrintRoundTable(out, rows)
	return nil
}
