// Package hooks provides actions that run after the report has been written.
package hooks

import (
	"context"

	"go.uber.org/zap"
)

// Hook runs after a report is written. Hook failures never fail the run.
type Hook interface {
	Name() string
	AfterReport(ctx context.Context, reportPath string) error
}

// RunAll runs hooks in order, logging and collecting failures.
func RunAll(ctx context.Context, hooks []Hook, reportPath string, logger *zap.Logger) []error {
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs []error
	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		logger.Debug("Running post-run hook", zap.String("hook", h.Name()), zap.String("report", reportPath))
		if err := h.AfterReport(ctx, reportPath); err != nil {
			logger.Warn("Post-run hook failed", zap.String("hook", h.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errs
}
