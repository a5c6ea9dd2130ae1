package types

import "fmt"

// TargetRule names the rule used to derive Target D for a candidate.
type TargetRule string

// Supported target rules
const (
	RuleFeed         TargetRule = "feed"          // Candidate carries its own target
	RuleConstant     TargetRule = "constant"      // One global target for every candidate
	RuleMetadata     TargetRule = "metadata"      // Target parsed from a metadata key
	RuleTable        TargetRule = "table"         // Target looked up by candidate ID
	RuleMeasuredMove TargetRule = "measured_move" // Target projected from price history
)

// MoveParams tunes the measured-move rule.
type MoveParams struct {
	ATRPeriod     int     `json:"atr_period"`
	ATRWindow     int     `json:"atr_window"`
	ATRMultiplier float64 `json:"atr_multiplier"`
	MinBars       int     `json:"min_bars"`
	MinDeviation  float64 `json:"min_deviation"`
}

// DefaultMoveParams returns the settings used by the daily scan.
func DefaultMoveParams() MoveParams {
	return MoveParams{
		ATRPeriod:     14,
		ATRWindow:     30,
		ATRMultiplier: 6.0,
		MinBars:       20,
		MinDeviation:  0.01,
	}
}

// TargetSpec selects a target rule and carries the inputs it needs.
type TargetSpec struct {
	Rule  TargetRule         `json:"rule"`
	Value float64            `json:"value,omitempty"`
	Key   string             `json:"key,omitempty"`
	Table map[string]float64 `json:"table,omitempty"`
	Move  MoveParams         `json:"move,omitempty"`
}

// Describe returns a short human-readable description of the target rule.
func (s TargetSpec) Describe() string {
	switch s.Rule {
	case RuleConstant:
		return fmt.Sprintf("constant %g", s.Value)
	case RuleMetadata:
		return "metadata:" + s.Key
	case RuleTable:
		return "table"
	case RuleMeasuredMove:
		return "measured move"
	default:
		return "feed"
	}
}
