package ranking

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/setup-scanner/internal/types"
)

func scored(id string, distance float64) types.ScoredCandidate {
	return types.ScoredCandidate{
		Candidate: types.Candidate{ID: id},
		Distance:  distance,
	}
}

func ids(matches []types.ScoredCandidate) []string {
	out := make([]string, len(matches))
	for i := range matches {
		out[i] = matches[i].ID()
	}
	return out
}

func TestRank_ByDistanceThenID(t *testing.T) {
	matches := []types.ScoredCandidate{
		scored("X", 2.0),
		scored("A", 1.0),
		scored("B", 2.0),
		scored("M", 0.5),
	}

	ranked := Rank(matches)

	want := []string{"M", "A", "B", "X"}
	if diff := cmp.Diff(want, ids(ranked)); diff != "" {
		t.Errorf("Rank() order mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	matches := []types.ScoredCandidate{scored("B", 3), scored("A", 1)}

	_ = Rank(matches)

	assert.Equal(t, []string{"B", "A"}, ids(matches))
}

func TestRank_Empty(t *testing.T) {
	ranked := Rank(nil)
	require.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestRank_OrderIndependentOfInputPermutation(t *testing.T) {
	base := []types.ScoredCandidate{
		scored("AAPL", 1.25),
		scored("MSFT", 0.40),
		scored("NVDA", 1.25),
		scored("AMZN", 3.10),
		scored("KO", 0.40),
		scored("JPM", 0),
	}
	want := ids(Rank(base))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]types.ScoredCandidate, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		if diff := cmp.Diff(want, ids(Rank(shuffled))); diff != "" {
			t.Fatalf("permutation %d ranked differently (-want +got):\n%s", i, diff)
		}
	}
	assert.Equal(t, []string{"JPM", "KO", "MSFT", "AAPL", "NVDA", "AMZN"}, want)
}

func TestRankResult(t *testing.T) {
	result := &types.ScanResult{
		Threshold: 5,
		Scanned:   3,
		Matches:   []types.ScoredCandidate{scored("B", 4), scored("A", 4)},
		Errors:    []types.ItemError{{ID: "C", Kind: "InvalidTarget", Reason: "target is zero"}},
	}

	ranked := RankResult(result)

	assert.Equal(t, []string{"A", "B"}, ids(ranked.Matches))
	assert.Equal(t, result.Errors, ranked.Errors)
	assert.Equal(t, 3, ranked.Scanned)
	assert.Equal(t, []string{"B", "A"}, ids(result.Matches))
	assert.Nil(t, RankResult(nil))
}
