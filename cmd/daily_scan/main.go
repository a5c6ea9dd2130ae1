// Package main provides the entry point for the daily setup scanner CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/setup-scanner/internal/observability"
	"github.com/jonathan/setup-scanner/internal/scanerr"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "daily_scan",
	Short: "Scan candidates for setups near their Target D",
	Long: `daily_scan reads candidates from a data source, derives each candidate's Target D,
keeps those whose measured quantity lies within --threshold percent of the target,
ranks them by distance and writes daily_report_YYYY-MM-DD.html.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
flags override config file values.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		l, err := observability.NewLogger(scanVerbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
	RunE: runScanCmd,
}

func init() {
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &scanerr.ConfigError{Message: err.Error()}
	})
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(scanerr.ExitCode(err))
	}
}
