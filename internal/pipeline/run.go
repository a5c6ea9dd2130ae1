// Package pipeline provides the high-level orchestration of a daily scan:
// fetch, resolve and filter, rank, render, write, then post-run hooks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/setup-scanner/internal/datasource"
	"github.com/jonathan/setup-scanner/internal/hooks"
	"github.com/jonathan/setup-scanner/internal/observability"
	"github.com/jonathan/setup-scanner/internal/proximity"
	"github.com/jonathan/setup-scanner/internal/ranking"
	"github.com/jonathan/setup-scanner/internal/rendering"
	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/target"
	"github.com/jonathan/setup-scanner/internal/types"
)

// DefaultSourceTimeout bounds opening and reading the data source.
const DefaultSourceTimeout = 60 * time.Second

// OpenFunc constructs a data source. datasource.Open is used when nil.
type OpenFunc func(ctx context.Context, uri string, opts datasource.Options) (datasource.DataSource, error)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Threshold     float64
	SourceURI     string
	SourceOptions datasource.Options
	Open          OpenFunc
	Target        types.TargetSpec
	OutDir        string
	TemplatePath  string
	SourceTimeout time.Duration
	Workers       int
	Interactive   bool
	Confirm       rendering.Confirmer
	Hooks         []hooks.Hook
	RunDate       time.Time        // Calendar day of the run; today when zero
	Now           func() time.Time // Clock for the generated-at stamp
	Verbose       bool
	Logger        *zap.Logger
	Out           io.Writer // Console summary; os.Stdout when nil
}

// Outcome describes a completed run.
type Outcome struct {
	RunID      uuid.UUID
	ReportPath string
	Result     *types.ScanResult
	HookErrors []error
}

// Run executes one scan. A fatal error aborts the run before the report is
// written, so a run leaves either exactly one report or none. Per-candidate
// failures are carried in the result and never abort.
func Run(ctx context.Context, opts RunOptions) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	printer := observability.NewPrinter(out)

	// Configuration is checked before any candidate is touched
	if err := proximity.ValidateThreshold(opts.Threshold); err != nil {
		return nil, err
	}
	resolver, err := target.NewResolver(opts.Target)
	if err != nil {
		return nil, err
	}
	filter, err := proximity.NewFilter(resolver, opts.Threshold, proximity.Options{
		Workers: opts.Workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	renderer, err := rendering.NewRenderer(opts.TemplatePath)
	if err != nil {
		return nil, &scanerr.ConfigError{Field: "template", Message: "cannot be used", Cause: err}
	}

	started := now()
	day := runDay(opts.RunDate, started)
	runID := uuid.New()
	logger = logger.With(zap.String("run_id", runID.String()))

	sourceName, candidates, err := fetch(ctx, opts, day, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Fetched candidates", zap.String("source", sourceName), zap.Int("count", len(candidates)))

	meta := types.RunMetadata{
		RunID:       runID,
		RunDate:     day,
		GeneratedAt: started,
		Threshold:   opts.Threshold,
		Source:      sourceName,
		Rule:        resolver.Spec().Describe(),
	}
	if opts.Verbose {
		printer.PrintRunHeader(meta)
	}

	scanned, err := filter.Scan(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	result := ranking.RankResult(scanned)

	content, err := renderer.Render(meta, result)
	if err != nil {
		return nil, fmt.Errorf("report rendering failed: %w", err)
	}

	reportPath := rendering.ReportPath(opts.OutDir, day)
	if err := rendering.WriteReport(reportPath, content, rendering.WriteOptions{
		Interactive: opts.Interactive,
		Confirm:     opts.Confirm,
	}); err != nil {
		return nil, err
	}
	logger.Info("Report written",
		zap.String("path", reportPath),
		zap.Int("scanned", result.Scanned),
		zap.Int("retained", result.Retained()),
		zap.Int("errored", result.Errored()),
	)

	outcome := &Outcome{
		RunID:      runID,
		ReportPath: reportPath,
		Result:     result,
		HookErrors: hooks.RunAll(ctx, opts.Hooks, reportPath, logger),
	}

	printer.PrintScanSummary(result, reportPath)
	return outcome, nil
}

// fetch opens the source and reads the day's candidates under the source
// timeout. The source is closed before fetch returns.
func fetch(ctx context.Context, opts RunOptions, day time.Time, logger *zap.Logger) (string, []types.Candidate, error) {
	timeout := opts.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	open := opts.Open
	if open == nil {
		open = datasource.Open
	}
	sourceOpts := opts.SourceOptions
	if sourceOpts.Logger == nil {
		sourceOpts.Logger = logger
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src, err := open(fetchCtx, opts.SourceURI, sourceOpts)
	if err != nil {
		return "", nil, sourceError(ctx, fetchCtx, opts.SourceURI, "failed to open source", err)
	}
	defer func() {
		if cerr := datasource.Close(src); cerr != nil {
			logger.Warn("Failed to close data source", zap.String("source", src.Name()), zap.Error(cerr))
		}
	}()

	logger.Debug("Fetching candidates", zap.String("source", src.Name()), zap.Duration("timeout", timeout))
	candidates, err := src.FetchCandidates(fetchCtx, day)
	if err != nil {
		return "", nil, sourceError(ctx, fetchCtx, src.Name(), "failed to fetch candidates", err)
	}
	return src.Name(), candidates, nil
}

// sourceError classifies a failure to obtain candidates. Configuration errors
// pass through; an expired source deadline becomes a DataSourceTimeout.
func sourceError(parent, fetchCtx context.Context, source, message string, err error) error {
	var configErr *scanerr.ConfigError
	if errors.As(err, &configErr) {
		return err
	}
	if parent.Err() != nil {
		return fmt.Errorf("scan canceled: %w", err)
	}

	timedOut := errors.Is(fetchCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)

	var sourceErr *scanerr.DataSourceError
	if errors.As(err, &sourceErr) {
		if timedOut && !sourceErr.Timeout {
			return &scanerr.DataSourceError{Source: sourceErr.Source, Message: "timed out", Timeout: true, Cause: err}
		}
		return err
	}
	if timedOut {
		return &scanerr.DataSourceError{Source: source, Message: "timed out", Timeout: true, Cause: err}
	}
	return &scanerr.DataSourceError{Source: source, Message: message, Cause: err}
}

// runDay returns the calendar day of the run as midnight UTC.
func runDay(day, now time.Time) time.Time {
	if day.IsZero() {
		day = now
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
