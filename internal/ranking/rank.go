// Package ranking orders retained candidates for the report.
package ranking

import (
	"sort"

	"github.com/jonathan/setup-scanner/internal/types"
)

// Rank returns the matches sorted by ascending distance, ties broken by ascending ID.
// The input slice is left untouched.
func Rank(matches []types.ScoredCandidate) []types.ScoredCandidate {
	ranked := make([]types.ScoredCandidate, len(matches))
	copy(ranked, matches)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Distance != ranked[j].Distance {
			return ranked[i].Distance < ranked[j].Distance
		}
		return ranked[i].ID() < ranked[j].ID()
	})

	return ranked
}

// RankResult returns a copy of result with its matches ranked.
func RankResult(result *types.ScanResult) *types.ScanResult {
	if result == nil {
		return nil
	}
	out := *result
	out.Matches = Rank(result.Matches)
	return &out
}
