package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/report"
)

var summaryTop int

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all matches stored in the database:
match, player and round counts, map and mode breakdowns, and the most
active players.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryTop, "top", 10, "number of most active players to list")
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.Overview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Matches == 0 {
		noArgsHint(cmd)
		return nil
	}

	out := cmd.OutOrStdout()
	cHead.Fprintf(out, "\n=== Database Summary ===\n\n")
	report.PrintOverview(out, ov)

	players, err := db.ListPlayers()
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) > summaryTop {
		players = players[:summaryTop]
	}
	cHead.Fprintf(out, "--- Most Active Players ---\n\n")
	pt := tablewriter.NewTable(out, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	pt.Header("NAME", "PUUID", "MATCHES")
	for _, p := range players {
		name := p.Name
		if p.Tag != "" {
			name += "#" + p.Tag
		}
		pt.Append(name, p.PUUID, strconv.Itoa(p.Matches))
	}
	pt.Render()
	return nil
}
