package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		noArgsHint(cmd)
		return nil
	}
	report.PrintMatchList(cmd.OutOrStdout(), matches)
	return nil
}
