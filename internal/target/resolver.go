// Package target resolves Target D for each candidate according to a configured rule.
package target

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/strategy"
	"github.com/jonathan/setup-scanner/internal/types"
)

// Resolution is the outcome of resolving one candidate.
type Resolution struct {
	Target    float64
	Quantity  float64 // Measured quantity to compare against Target
	Direction string
	Detail    string
	Levels    []types.Level // Swing points behind a measured-move target
}

// Resolver derives Target D from a candidate. It holds no mutable state, so
// a single Resolver may be shared across goroutines.
type Resolver struct {
	spec types.TargetSpec
}

// NewResolver validates spec and returns a Resolver for it.
func NewResolver(spec types.TargetSpec) (*Resolver, error) {
	if spec.Rule == "" {
		spec.Rule = types.RuleFeed
	}

	switch spec.Rule {
	case types.RuleFeed:
	case types.RuleConstant:
		if math.IsNaN(spec.Value) || math.IsInf(spec.Value, 0) {
			return nil, &scanerr.ConfigError{Field: "target_value", Message: "must be a finite number"}
		}
	case types.RuleMetadata:
		if strings.TrimSpace(spec.Key) == "" {
			return nil, &scanerr.ConfigError{Field: "target_key", Message: "is required for rule 'metadata'"}
		}
	case types.RuleTable:
		if spec.Table == nil {
			return nil, &scanerr.ConfigError{Field: "target_table", Message: "is required for rule 'table'"}
		}
	case types.RuleMeasuredMove:
		defaults := types.DefaultMoveParams()
		if spec.Move.ATRPeriod <= 0 {
			spec.Move.ATRPeriod = defaults.ATRPeriod
		}
		if spec.Move.ATRWindow <= 0 {
			spec.Move.ATRWindow = defaults.ATRWindow
		}
		if spec.Move.ATRMultiplier <= 0 {
			spec.Move.ATRMultiplier = defaults.ATRMultiplier
		}
		if spec.Move.MinDeviation <= 0 {
			spec.Move.MinDeviation = defaults.MinDeviation
		}
		if spec.Move.MinBars < 0 {
			return nil, &scanerr.ConfigError{Field: "min_bars", Message: "must be non-negative"}
		}
	default:
		return nil, &scanerr.ConfigError{Field: "rule", Message: fmt.Sprintf("unknown target rule %q", spec.Rule)}
	}

	return &Resolver{spec: spec}, nil
}

// Spec returns the effective spec, with defaults applied.
func (r *Resolver) Spec() types.TargetSpec {
	return r.spec
}

// Resolve returns Target D for c, or a *scanerr.TargetError of kind
// UnresolvableTarget when the rule cannot produce a value for it.
func (r *Resolver) Resolve(c *types.Candidate) (Resolution, error) {
	res := Resolution{Quantity: c.Quantity}

	switch r.spec.Rule {
	case types.RuleConstant:
		res.Target = r.spec.Value

	case types.RuleMetadata:
		raw, ok := c.Metadata[r.spec.Key]
		if !ok || strings.TrimSpace(raw) == "" {
			return res, scanerr.Unresolvable(c.ID, "metadata key %q is missing", r.spec.Key)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return res, &scanerr.TargetError{
				CandidateID: c.ID,
				Kind:        scanerr.KindUnresolvableTarget,
				Message:     fmt.Sprintf("metadata key %q is not a number", r.spec.Key),
				Cause:       err,
			}
		}
		res.Target = v

	case types.RuleTable:
		v, ok := r.spec.Table[c.ID]
		if !ok {
			return res, scanerr.Unresolvable(c.ID, "no entry in target table")
		}
		res.Target = v

	case types.RuleMeasuredMove:
		return r.resolveMeasuredMove(c)

	default:
		if c.Target == nil {
			return res, scanerr.Unresolvable(c.ID, "feed did not supply a target")
		}
		res.Target = *c.Target
	}

	return res, nil
}

func (r *Resolver) resolveMeasuredMove(c *types.Candidate) (Resolution, error) {
	res := Resolution{Quantity: c.Quantity}
	if len(c.Bars) == 0 {
		return res, scanerr.Unresolvable(c.ID, "no price history")
	}

	analysis, err := strategy.Analyze(c.Bars, r.spec.Move)
	if err != nil {
		return res, scanerr.Unresolvable(c.ID, "%v (%d bars, deviation %.2f%%)", err, len(c.Bars), analysis.Deviation*100)
	}

	// The feed's quantity wins; without one the last close is scored.
	if res.Quantity == 0 {
		res.Quantity, _ = c.LastClose()
	}

	move, err := analysis.Nearest(res.Quantity)
	if err != nil {
		if errors.Is(err, strategy.ErrNoPattern) {
			return res, scanerr.Unresolvable(c.ID, "no active measured move among %d pivots", len(analysis.Pivots))
		}
		return res, scanerr.Unresolvable(c.ID, "%v", err)
	}

	res.Target = move.Target
	res.Direction = move.Direction
	res.Detail = move.Describe()
	res.Levels = move.Levels(len(c.Bars) - 1)
	return res, nil
}
