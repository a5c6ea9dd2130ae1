package types

import (
	"time"

	"github.com/google/uuid"
)

// Direction labels for measured-move derived targets
const (
	DirectionBullish = "Bullish"
	DirectionBearish = "Bearish"
)

// Level is a labelled price point of a swing pattern (A, B, C or the projected D).
// Index refers to the candidate's Bars.
type Level struct {
	Label string  `json:"label"`
	Index int     `json:"index"`
	Date  string  `json:"date,omitempty"`
	Price float64 `json:"price"`
}

// ScoredCandidate is a candidate with its resolved Target D and percentage distance.
type ScoredCandidate struct {
	Candidate Candidate `json:"candidate"`
	Quantity  float64   `json:"quantity"` // Measured quantity used for scoring
	Target    float64   `json:"target"`
	Distance  float64   `json:"distance"` // Percent distance from Target D
	Direction string    `json:"direction,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Levels    []Level   `json:"levels,omitempty"`
}

// ID returns the identifier of the underlying candidate.
func (s *ScoredCandidate) ID() string {
	return s.Candidate.ID
}

// ItemError records a candidate that was excluded because of a per-item failure.
type ItemError struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// ScanResult is the outcome of one scan. Matches hold every candidate whose
// distance is within Threshold; Errors hold candidates excluded by per-item failures.
type ScanResult struct {
	Threshold float64           `json:"threshold"`
	Scanned   int               `json:"scanned"`
	Matches   []ScoredCandidate `json:"matches"`
	Errors    []ItemError       `json:"errors"`
}

// Retained returns the number of matches.
func (r *ScanResult) Retained() int {
	return len(r.Matches)
}

// Errored returns the number of per-item errors.
func (r *ScanResult) Errored() int {
	return len(r.Errors)
}

// RunMetadata describes a single scanner run for the report header.
type RunMetadata struct {
	RunID       uuid.UUID `json:"run_id"`
	RunDate     time.Time `json:"run_date"`
	GeneratedAt time.Time `json:"generated_at"`
	Threshold   float64   `json:"threshold"`
	Source      string    `json:"source"`
	Rule        string    `json:"rule"`
}
