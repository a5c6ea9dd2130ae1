package proximity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/target"
	"github.com/jonathan/setup-scanner/internal/types"
)

// TargetResolver derives Target D for a candidate.
type TargetResolver interface {
	Resolve(c *types.Candidate) (target.Resolution, error)
}

// Options configures a Filter.
type Options struct {
	Workers int // Parallel scoring workers; defaults to runtime.NumCPU()
	Logger  *zap.Logger
}

// Filter resolves, scores and classifies candidates against a threshold.
type Filter struct {
	resolver  TargetResolver
	threshold float64
	workers   int
	logger    *zap.Logger
	validate  *validator.Validate
}

// outcome is the per-candidate result slot written by exactly one worker.
type outcome struct {
	scored   *types.ScoredCandidate
	excluded bool
	err      *types.ItemError
}

// NewFilter validates the threshold before any candidate is seen.
func NewFilter(resolver TargetResolver, threshold float64, opts Options) (*Filter, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, fmt.Errorf("target resolver is required")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Filter{
		resolver:  resolver,
		threshold: threshold,
		workers:   workers,
		logger:    logger,
		validate:  validator.New(),
	}, nil
}

// Threshold returns the filter's inclusive percent threshold.
func (f *Filter) Threshold() float64 {
	return f.threshold
}

// Score resolves and scores a single candidate. Per-candidate failures are
// returned as *scanerr.TargetError.
func (f *Filter) Score(c *types.Candidate) (*types.ScoredCandidate, error) {
	if c.Defect != "" {
		return nil, &scanerr.TargetError{CandidateID: c.ID, Kind: scanerr.KindInvalidCandidate, Message: c.Defect}
	}
	if err := f.validate.Struct(c); err != nil {
		return nil, &scanerr.TargetError{
			CandidateID: c.ID,
			Kind:        scanerr.KindInvalidCandidate,
			Message:     "candidate failed validation",
			Cause:       err,
		}
	}

	res, err := f.resolver.Resolve(c)
	if err != nil {
		return nil, err
	}

	distance, err := Distance(c.ID, res.Quantity, res.Target)
	if err != nil {
		return nil, err
	}

	return &types.ScoredCandidate{
		Candidate: *c,
		Quantity:  res.Quantity,
		Target:    res.Target,
		Distance:  distance,
		Direction: res.Direction,
		Detail:    res.Detail,
		Levels:    res.Levels,
	}, nil
}

// Scan scores every candidate and returns the retained matches in input order
// together with per-item errors sorted by ID. Per-item failures never abort the
// scan; only context cancellation or an unexpected resolver error does.
func (f *Filter) Scan(ctx context.Context, candidates []types.Candidate) (*types.ScanResult, error) {
	outcomes := make([]outcome, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for i := range candidates {
		id := candidates[i].ID
		if id != "" && seen[id] {
			outcomes[i].err = &types.ItemError{
				ID:     id,
				Kind:   string(scanerr.KindInvalidCandidate),
				Reason: "duplicate candidate id; first occurrence kept",
			}
		}
		seen[id] = true
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i := range candidates {
		if outcomes[i].err != nil {
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			c := &candidates[i]
			scored, err := f.Score(c)
			if err != nil {
				if scanerr.IsFatal(err) {
					return fmt.Errorf("scoring %s: %w", c.ID, err)
				}
				var targetErr *scanerr.TargetError
				errors.As(err, &targetErr)
				outcomes[i].err = &types.ItemError{ID: c.ID, Kind: string(targetErr.Kind), Reason: targetErr.Reason()}
				return nil
			}
			if !Within(scored.Distance, f.threshold) {
				outcomes[i].excluded = true
				return nil
			}
			outcomes[i].scored = scored
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &types.ScanResult{
		Threshold: f.threshold,
		Scanned:   len(candidates),
		Matches:   []types.ScoredCandidate{},
		Errors:    []types.ItemError{},
	}
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			f.logger.Warn("Candidate excluded",
				zap.String("id", o.err.ID),
				zap.String("kind", o.err.Kind),
				zap.String("reason", o.err.Reason))
			result.Errors = append(result.Errors, *o.err)
		case o.scored != nil:
			f.logger.Debug("Candidate retained",
				zap.String("id", o.scored.ID()),
				zap.Float64("distance", o.scored.Distance))
			result.Matches = append(result.Matches, *o.scored)
		default:
			f.logger.Debug("Candidate outside threshold", zap.String("id", candidates[i].ID))
		}
	}

	SortItemErrors(result.Errors)
	return result, nil
}

// SortItemErrors orders per-item errors by ID, then kind, then reason.
func SortItemErrors(errs []types.ItemError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].ID != errs[j].ID {
			return errs[i].ID < errs[j].ID
		}
		if errs[i].Kind != errs[j].Kind {
			return errs[i].Kind < errs[j].Kind
		}
		return errs[i].Reason < errs[j].Reason
	})
}
