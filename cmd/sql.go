package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  matches(match_id, map_name, mode, queue, started_at, rounds_played,
    schema_version, red_rounds, blue_rounds, has_rounds, payload)
  player_match_results(match_id, puuid, name, tag, team, agent, won, rounds_played,
    kills, deaths, assists, damage_made, kast_rounds, multi_kills, first_kills,
    first_deaths, entry_attempts, entry_wins, clutch_attempts, clutch_wins,
    eco_rounds, eco_kills, eco_wins, plants, defuses, source, result_json)
  player_round_stats(match_id, puuid, round_number, team, kills, damage,
    loadout_value, got_kill, got_assist, damage_assist, survived, was_traded,
    kast_earned, is_opening_kill, is_opening_death, is_multi_kill, is_eco,
    in_clutch, clutch_enemies, won_round)
  result_cache(id, match_id, puuid, filter, result_json, created_at)

payload is zstd-compressed; source is 'exact' or 'estimated'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no rows)")
		return nil
	}
	report.PrintRows(cmd.OutOrStdout(), cols, rows)
	return nil
}
