package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes the metrics database file.
var dropCmd = &cobra.Command{
	Use:   "drop [match-id-prefix]",
	Short: "Delete the metrics database, or one stored match",
	Long: `Without arguments, permanently delete the SQLite metrics database. With a
match id prefix, delete only that match with its results, round rows and
cached results. Re-parse your payloads afterwards to rebuild.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if len(args) == 1 {
		return dropMatch(cmd, args[0])
	}
	if !dropForce {
		cWarn.Fprintf(errOut, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(errOut, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	cOK.Fprintf(out, "Deleted: %s\n", dbPath)
	return nil
}

func dropMatch(cmd *cobra.Command, prefix string) error {
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
	if !dropForce {
		cWarn.Fprintf(cmd.ErrOrStderr(), "This will delete match %s (%s, %s).\n", m.MatchID, m.MapName, m.Mode)
		fmt.Fprintf(cmd.ErrOrStderr(), "Re-run with --force to confirm.\n")
		return nil
	}
	if err := db.DeleteMatch(m.MatchID); err != nil {
		return err
	}
	_ = sessionCache.Invalidate(m.MatchID)
	cOK.Fprintf(cmd.OutOrStdout(), "Deleted match %s\n", m.MatchID)
	return nil
}
