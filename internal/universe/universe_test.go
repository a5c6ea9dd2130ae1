package universe

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"dow30", "nasdaq100", "global", "crypto", "commodities-hard", "commodities-soft"}, Names())
}

func TestGet_ByNameOrTitle(t *testing.T) {
	for _, name := range []string{"dow30", "DOW30", "Dow 30", " dow30 "} {
		u, ok := Get(name)
		require.True(t, ok, name)
		assert.Equal(t, "dow30", u.Name)
		assert.Len(t, u.Symbols, 30)
	}

	u, ok := Get("Commodities (Soft)")
	require.True(t, ok)
	assert.Equal(t, "commodities-soft", u.Name)

	_, ok = Get("ftse250")
	assert.False(t, ok)
}

func TestGet_ReturnsCopy(t *testing.T) {
	u, _ := Get("crypto")
	u.Symbols[0] = "CHANGED"

	again, _ := Get("crypto")
	assert.Equal(t, "BTC-USD", again.Symbols[0])
}

func TestLookup_DefaultIsDedupedUnion(t *testing.T) {
	symbols, err := Lookup(nil)
	require.NoError(t, err)

	assert.True(t, sort.StringsAreSorted(symbols))

	seen := make(map[string]bool)
	for _, s := range symbols {
		assert.False(t, seen[s], "duplicate symbol %s", s)
		seen[s] = true
	}
	// AAPL, MSFT, NVDA, CSCO, INTC, HON, AMGN appear in both lists
	assert.True(t, seen["AAPL"])
	assert.True(t, seen["WMT"])
	assert.True(t, seen["ZS"])
	assert.Len(t, symbols, 30+95-7)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup([]string{"dow30", "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown universe "bogus"`)
	assert.Contains(t, err.Error(), "nasdaq100")
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 6)
	assert.Equal(t, "Global Indices", all[2].Title)
	assert.Contains(t, all[4].Symbols, "GC=F")
}
