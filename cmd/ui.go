package cmd

import (
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/valmetrics/internal/storage"
)

var (
	cOK    = color.New(color.FgGreen)
	cWarn  = color.New(color.FgYellow)
	cError = color.New(color.FgRed, color.Bold)
	cMuted = color.New(color.Faint)
	cHead  = color.New(color.FgCyan, color.Bold)
)

// unavailableMsg is the user-facing text for a match the engine rejected.
const unavailableMsg = "stats unavailable for this match"

// openDB opens the configured database, creating its directory if needed.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	return storage.Open(dbPath)
}

func noArgsHint(cmd *cobra.Command) {
	cMuted.Fprintf(cmd.ErrOrStderr(), "No matches stored yet. Run 'valmetrics parse <payload.json>' to add one.\n")
}
