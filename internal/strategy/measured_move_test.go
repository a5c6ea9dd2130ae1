package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/setup-scanner/internal/indicators"
	"github.com/jonathan/setup-scanner/internal/types"
)

func bar(date string, high, low, closePrice float64) types.Bar {
	return types.Bar{Date: date, High: high, Low: low, Close: closePrice}
}

// swing: low 9, high 15, higher low 10, lower high 12, closing at 11.8
func swingBars() []types.Bar {
	return []types.Bar{
		bar("2026-01-01", 10, 9, 9.5),
		bar("2026-01-02", 12, 11, 11.5),
		bar("2026-01-05", 15, 14, 14.5),
		bar("2026-01-06", 13, 12, 12.5),
		bar("2026-01-07", 12, 10, 11),
		bar("2026-01-08", 12, 11.5, 11.8),
	}
}

func testParams() types.MoveParams {
	return types.MoveParams{ATRPeriod: 14, ATRWindow: 30, ATRMultiplier: 6, MinBars: 0, MinDeviation: 0.10}
}

func TestAnalyze_DetectsBullishAndBearishMoves(t *testing.T) {
	analysis, err := Analyze(swingBars(), testParams())
	require.NoError(t, err)
	require.Len(t, analysis.Pivots, 4)
	require.Len(t, analysis.Moves, 2)

	bullish := analysis.Moves[0]
	assert.Equal(t, types.DirectionBullish, bullish.Direction)
	assert.Equal(t, 9.0, bullish.A.Price)
	assert.Equal(t, 15.0, bullish.B.Price)
	assert.Equal(t, 10.0, bullish.C.Price)
	assert.Equal(t, 16.0, bullish.Target)
	assert.Equal(t, 11.8, bullish.CurrentPrice)

	bearish := analysis.Moves[1]
	assert.Equal(t, types.DirectionBearish, bearish.Direction)
	assert.Equal(t, 7.0, bearish.Target)
	assert.Equal(t, "2026-01-08", bearish.C.Date)
}

func TestAnalyze_NotEnoughPivots(t *testing.T) {
	bars := []types.Bar{bar("d1", 10, 9.9, 10), bar("d2", 10, 9.9, 10)}
	analysis, err := Analyze(bars, testParams())
	assert.ErrorIs(t, err, ErrNotEnoughPivots)
	require.NotNil(t, analysis)
	assert.Empty(t, analysis.Moves)
}

func TestAnalyze_RejectsLowerLowInBullishShape(t *testing.T) {
	pivots := []indicators.Pivot{
		{Kind: indicators.PivotLow, Price: 10},
		{Kind: indicators.PivotHigh, Price: 15},
		{Kind: indicators.PivotLow, Price: 9},
	}
	_, ok := detect(pivots[0], pivots[1], pivots[2], 12)
	assert.False(t, ok)
}

func TestAnalysis_Nearest(t *testing.T) {
	analysis, err := Analyze(swingBars(), testParams())
	require.NoError(t, err)

	nearest, err := analysis.Nearest(11.8)
	require.NoError(t, err)
	// 11.8 is 26.25% from 16 and ~68.6% from 7
	assert.Equal(t, types.DirectionBullish, nearest.Direction)
	assert.InDelta(t, 26.25, nearest.DistanceFrom(nearest.CurrentPrice), 1e-9)
	assert.Contains(t, nearest.Describe(), "Bullish A 9.00 (2026-01-01)")
}

func TestAnalysis_NearestWithoutMoves(t *testing.T) {
	analysis := &Analysis{}
	_, err := analysis.Nearest(10)
	assert.ErrorIs(t, err, ErrNoPattern)
}

func TestAnalysis_NearestFollowsScoredPrice(t *testing.T) {
	analysis, err := Analyze(swingBars(), testParams())
	require.NoError(t, err)

	nearest, err := analysis.Nearest(7.5)
	require.NoError(t, err)
	assert.Equal(t, types.DirectionBearish, nearest.Direction)
	assert.Equal(t, 7.0, nearest.Target)
	assert.InDelta(t, 100*0.5/7, nearest.DistanceFrom(7.5), 1e-9)
}

func TestAnalysis_ActiveMovesKeepsMostRecent(t *testing.T) {
	analysis := &Analysis{}
	for i := 0; i < 7; i++ {
		analysis.Moves = append(analysis.Moves, MeasuredMove{Target: float64(i)})
	}
	active := analysis.ActiveMoves()
	require.Len(t, active, maxActiveMoves)
	assert.Equal(t, 2.0, active[0].Target)
	assert.Equal(t, 6.0, active[4].Target)
}

func TestMeasuredMove_Levels(t *testing.T) {
	analysis, err := Analyze(swingBars(), testParams())
	require.NoError(t, err)

	levels := analysis.Moves[0].Levels(5)
	require.Len(t, levels, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{levels[0].Label, levels[1].Label, levels[2].Label, levels[3].Label})
	assert.Equal(t, 2, levels[1].Index)
	assert.Equal(t, 15.0, levels[1].Price)
	assert.Equal(t, 5, levels[3].Index)
	assert.Equal(t, 16.0, levels[3].Price)
}
