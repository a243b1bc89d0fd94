package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <match-id-prefix>",
	Short: "Show stored match stats by match id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player PUUID")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		cWarn.Fprintf(cmd.ErrOrStderr(), "No match found with id prefix %q\n", prefix)
		return nil
	}
	return showMatch(cmd, db, m.MatchID, showPlayer)
}
