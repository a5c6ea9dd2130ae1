// Package types provides type definitions for structured data used throughout the setup scanner.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
)

// Bar is a single OHLCV price bar. Date is kept as the feed's YYYY-MM-DD string.
type Bar struct {
	Date   string  `json:"date" yaml:"date"`
	Open   float64 `json:"open" yaml:"open"`
	High   float64 `json:"high" yaml:"high"`
	Low    float64 `json:"low" yaml:"low"`
	Close  float64 `json:"close" yaml:"close"`
	Volume float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// Candidate is a single setup supplied by a data source.
// Candidates are treated as immutable once ingested.
type Candidate struct {
	ID       string            `json:"id" yaml:"id" validate:"required"`
	Quantity float64           `json:"quantity" yaml:"quantity"`
	Target   *float64          `json:"target,omitempty" yaml:"target,omitempty"` // Target D supplied by the feed, if any
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Bars     []Bar             `json:"bars,omitempty" yaml:"bars,omitempty"` // Price history for derived targets

	// Defect records why the source row could not be read cleanly. A candidate
	// with a defect is reported as InvalidCandidate instead of being scored.
	Defect string `json:"-" yaml:"-"`
}

// MetadataKeys returns the candidate's metadata keys in sorted order.
func (c *Candidate) MetadataKeys() []string {
	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LastClose returns the close of the most recent bar, or false if there is no history.
func (c *Candidate) LastClose() (float64, bool) {
	if len(c.Bars) == 0 {
		return 0, false
	}
	return c.Bars[len(c.Bars)-1].Close, true
}

// CandidateFeed is the document shape accepted by file and HTTP JSON sources.
type CandidateFeed struct {
	AsOf       string      `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}
