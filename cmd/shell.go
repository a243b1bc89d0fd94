package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session running valmetrics commands. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	cGreeting.Fprintln(out, "valmetrics shell")
	cMuted.Fprintln(out, "type 'help' or 'exit'")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cPrompt.Fprint(out, "valmetrics")
		cMuted.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}

		switch name := tokens[0]; name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp(cmd)
		case "shell":
			cWarn.Fprintln(errOut, "already in a shell")
		default:
			sub, _, err := rootCmd.Find(tokens)
			if err != nil || sub == rootCmd {
				cWarn.Fprintf(errOut, "unknown command %q, type 'help'\n", name)
				continue
			}
			resetFlags(sub)
			rootCmd.SetArgs(tokens)
			if err := rootCmd.ExecuteContext(cmd.Context()); err != nil {
				cError.Fprintf(errOut, "error: %v\n", err)
			}
		}
	}
	return nil
}

// resetFlags restores defaults so a flag given to one shell command does
// not leak into the next.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func shellHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	for _, c := range rootCmd.Commands() {
		if !c.IsAvailableCommand() || c.Name() == "shell" {
			continue
		}
		fmt.Fprint(out, "  ")
		cCmd.Fprintf(out, "%-44s", c.Use)
		fmt.Fprintln(out, c.Short)
	}
	fmt.Fprint(out, "  ")
	cCmd.Fprintf(out, "%-44s", "exit / quit")
	fmt.Fprintln(out, "close the session")
	fmt.Fprintln(out)
}
