package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/setup-scanner/internal/universe"
)

var universesShowSymbols bool

var universesCommand = &cobra.Command{
	Use:   "universes",
	Short: "List the built-in symbol universes",
	Long:  "Lists the symbol universes that scope a bars:// source via --universe. With no --universe the scan covers " + strings.Join(universe.Default, " and ") + ".",
	Args:  cobra.NoArgs,
	RunE:  runUniversesCmd,
}

func init() {
	universesCommand.Flags().BoolVar(&universesShowSymbols, "symbols", false, "Also print each universe's symbols")
	rootCmd.AddCommand(universesCommand)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runUniversesCmd(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, u := range universe.All() {
		fmt.Fprintf(out, "%-18s %-28s %4d symbols\n", u.Name, u.Title, len(u.Symbols))
		if universesShowSymbols {
			fmt.Fprintf(out, "    %s\n", strings.Join(u.Symbols, " "))
		}
	}
	return nil
}
