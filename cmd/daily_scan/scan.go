package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/setup-scanner/internal/config"
	"github.com/jonathan/setup-scanner/internal/datasource"
	"github.com/jonathan/setup-scanner/internal/hooks"
	"github.com/jonathan/setup-scanner/internal/observability"
	"github.com/jonathan/setup-scanner/internal/pipeline"
	"github.com/jonathan/setup-scanner/internal/rendering"
	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/target"
	"github.com/jonathan/setup-scanner/internal/types"
)

var (
	scanConfigPath    string
	scanThreshold     float64
	scanSource        string
	scanSourceFormat  string
	scanRule          string
	scanTargetValue   float64
	scanTargetKey     string
	scanTargetTable   string
	scanATRMultiplier float64
	scanMinBars       int
	scanUniverse      []string
	scanOutDir        string
	scanTemplate      string
	scanTimeout       time.Duration
	scanWorkers       int
	scanInteractive   bool
	scanOpen          bool
	scanPDF           bool
	scanVerbose       bool
	scanDate          string
)

func init() {
	// Config file flag (processed first)
	rootCmd.Flags().StringVar(&scanConfigPath, "config", "", "Path to JSON or YAML config file (values can be overridden by other flags)")

	rootCmd.Flags().Float64Var(&scanThreshold, "threshold", 0, "Maximum percent distance from Target D (required)")
	rootCmd.Flags().StringVarP(&scanSource, "source", "s", "", "Source URI: feed file, http(s)://, postgres://, sqlite://, bars:// (defaults to "+config.DatabaseURLEnv+")")
	rootCmd.Flags().StringVar(&scanSourceFormat, "source-format", "", "Payload format override: json, yaml or html")
	rootCmd.Flags().StringVar(&scanRule, "rule", "", "Target rule: feed, constant, metadata, table or measured_move")
	rootCmd.Flags().Float64Var(&scanTargetValue, "target-value", 0, "Target D for rule 'constant'")
	rootCmd.Flags().StringVar(&scanTargetKey, "target-key", "", "Metadata key holding Target D for rule 'metadata'")
	rootCmd.Flags().StringVar(&scanTargetTable, "target-table", "", "JSON or YAML file mapping IDs to Target D for rule 'table'")
	rootCmd.Flags().Float64Var(&scanATRMultiplier, "atr-multiplier", 0, "ZigZag sensitivity for rule 'measured_move'")
	rootCmd.Flags().IntVar(&scanMinBars, "min-bars", 0, "Minimum bars between pivots for rule 'measured_move'")
	rootCmd.Flags().StringSliceVar(&scanUniverse, "universe", nil, "Symbol universes for bars:// sources (see 'daily_scan universes')")
	rootCmd.Flags().StringVarP(&scanOutDir, "out-dir", "o", "", "Directory for the report (default \".\")")
	rootCmd.Flags().StringVarP(&scanTemplate, "template", "t", "", "Path to an html/template report template")
	rootCmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "Data source timeout (default 60s)")
	rootCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel scoring workers (default: number of CPUs)")
	rootCmd.Flags().BoolVarP(&scanInteractive, "interactive", "i", false, "Ask before overwriting an existing report")
	rootCmd.Flags().BoolVar(&scanOpen, "open", false, "Open the report when done")
	rootCmd.Flags().BoolVar(&scanPDF, "pdf", false, "Also export the report to PDF (requires Chrome)")
	rootCmd.Flags().StringVar(&scanDate, "date", "", "Run date as YYYY-MM-DD (default today)")

	rootCmd.PersistentFlags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print detailed debug information")
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	// Step 1: Load config file if provided
	var cfg config.Config
	if scanConfigPath != "" {
		loadedCfg, err := config.LoadConfig(scanConfigPath)
		if err != nil {
			return &scanerr.ConfigError{Field: "config", Message: "failed to load config", Cause: err}
		}

		// Validate loaded config
		if err := loadedCfg.Validate(); err != nil {
			return err
		}

		cfg = *loadedCfg
		logger.Debug("Loaded config", zap.String("path", scanConfigPath))
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	applyFlagOverrides(cmd, &cfg)

	// Step 3: Apply defaults for unset values
	if cfg.Source == "" {
		cfg.Source = os.Getenv(config.DatabaseURLEnv)
	}
	defaults := config.Config{
		Rule:          string(types.RuleFeed),
		Timeout:       pipeline.DefaultSourceTimeout.String(),
		OutDir:        ".",
		ATRMultiplier: types.DefaultMoveParams().ATRMultiplier,
		MinBars:       types.DefaultMoveParams().MinBars,
	}
	if datasource.PricesOnly(cfg.Source) {
		defaults.Rule = string(types.RuleMeasuredMove)
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: Validate
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireRunFields(); err != nil {
		return err
	}

	if cfg.Verbose && !scanVerbose {
		if l, err := observability.NewLogger(true); err == nil {
			logger = l
		}
	}

	opts, err := buildRunOptions(cmd, cfg)
	if err != nil {
		return err
	}

	_, err = pipeline.Run(cmd.Context(), opts)
	return err
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		v := scanThreshold
		cfg.Threshold = &v
	}
	if flags.Changed("source") {
		cfg.Source = scanSource
	}
	if flags.Changed("source-format") {
		cfg.SourceFormat = scanSourceFormat
	}
	if flags.Changed("rule") {
		cfg.Rule = scanRule
	}
	if flags.Changed("target-value") {
		cfg.TargetValue = scanTargetValue
	}
	if flags.Changed("target-key") {
		cfg.TargetKey = scanTargetKey
	}
	if flags.Changed("target-table") {
		cfg.TargetTable = scanTargetTable
	}
	if flags.Changed("atr-multiplier") {
		cfg.ATRMultiplier = scanATRMultiplier
	}
	if flags.Changed("min-bars") {
		cfg.MinBars = scanMinBars
	}
	if flags.Changed("universe") {
		cfg.Universe = scanUniverse
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = scanOutDir
	}
	if flags.Changed("template") {
		cfg.Template = scanTemplate
	}
	if flags.Changed("timeout") {
		cfg.Timeout = scanTimeout.String()
	}
	if flags.Changed("workers") {
		cfg.Workers = scanWorkers
	}
	if flags.Changed("interactive") {
		cfg.Interactive = scanInteractive
	}
	if flags.Changed("open") {
		cfg.Open = scanOpen
	}
	if flags.Changed("pdf") {
		cfg.PDF = scanPDF
	}
	if flags.Changed("verbose") {
		cfg.Verbose = scanVerbose
	}
}

func buildRunOptions(cmd *cobra.Command, cfg config.Config) (pipeline.RunOptions, error) {
	timeout, err := cfg.SourceTimeout()
	if err != nil {
		return pipeline.RunOptions{}, err
	}

	spec := types.TargetSpec{
		Rule:  types.TargetRule(cfg.Rule),
		Value: cfg.TargetValue,
		Key:   cfg.TargetKey,
		Move: types.MoveParams{
			ATRMultiplier: cfg.ATRMultiplier,
			MinBars:       cfg.MinBars,
		},
	}
	if spec.Rule == types.RuleTable {
		table, err := target.LoadTable(cfg.TargetTable)
		if err != nil {
			return pipeline.RunOptions{}, &scanerr.ConfigError{Field: "target_table", Message: "cannot be loaded", Cause: err}
		}
		spec.Table = table
	}

	var runDate time.Time
	if scanDate != "" {
		runDate, err = time.Parse(time.DateOnly, scanDate)
		if err != nil {
			return pipeline.RunOptions{}, &scanerr.ConfigError{Field: "date", Message: "must be YYYY-MM-DD", Cause: err}
		}
	}

	var postRun []hooks.Hook
	if cfg.PDF {
		postRun = append(postRun, &hooks.PDFExporter{})
	}
	if cfg.Open {
		postRun = append(postRun, &hooks.Opener{})
	}

	return pipeline.RunOptions{
		Threshold: *cfg.Threshold,
		SourceURI: cfg.Source,
		SourceOptions: datasource.Options{
			Format:   cfg.SourceFormat,
			Universe: cfg.Universe,
			Logger:   logger,
		},
		Target:        spec,
		OutDir:        cfg.OutDir,
		TemplatePath:  cfg.Template,
		SourceTimeout: timeout,
		Workers:       cfg.Workers,
		Interactive:   cfg.Interactive,
		Confirm:       &rendering.PromptConfirmer{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()},
		Hooks:         postRun,
		RunDate:       runDate,
		Verbose:       cfg.Verbose,
		Logger:        logger,
		Out:           cmd.OutOrStdout(),
	}, nil
}
