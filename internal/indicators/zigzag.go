package indicators

import (
	"math"
	"sort"

	"github.com/jonathan/setup-scanner/internal/types"
)

// PivotKind marks a pivot as a swing high or a swing low.
type PivotKind int

// Pivot kinds
const (
	PivotLow  PivotKind = -1
	PivotHigh PivotKind = 1
)

// fallbackDeviation is used when volatility cannot be measured.
const fallbackDeviation = 0.05

// Pivot is a confirmed swing point in a bar series.
type Pivot struct {
	Index int
	Date  string
	Kind  PivotKind
	Price float64
}

// ZigZagParams tunes the dynamic ZigZag.
type ZigZagParams struct {
	ATRPeriod     int
	ATRWindow     int
	ATRMultiplier float64
	MinDeviation  float64
	MinBars       int
}

// ZigZag identifies swing pivots whose reversal exceeds deviation (a fraction,
// e.g. 0.05 for 5%). A reversal is only confirmed when at least minBars bars have
// passed since the running extreme; minBars == 0 disables the check.
func ZigZag(bars []types.Bar, deviation float64, minBars int) []Pivot {
	if len(bars) == 0 {
		return nil
	}

	trend := 0
	lastHighIdx, lastLowIdx := 0, 0
	lastHigh, lastLow := bars[0].High, bars[0].Low

	var pivots []Pivot
	add := func(idx int, kind PivotKind, price float64) {
		pivots = append(pivots, Pivot{Index: idx, Date: bars[idx].Date, Kind: kind, Price: price})
	}
	barsOK := func(i, extremeIdx int) bool {
		return minBars == 0 || i-extremeIdx >= minBars
	}

	for i := 1; i < len(bars); i++ {
		high, low := bars[i].High, bars[i].Low

		switch trend {
		case 0:
			switch {
			case high > lastLow*(1+deviation):
				trend = 1
				add(lastLowIdx, PivotLow, lastLow)
				lastHighIdx, lastHigh = i, high
			case low < lastHigh*(1-deviation):
				trend = -1
				add(lastHighIdx, PivotHigh, lastHigh)
				lastLowIdx, lastLow = i, low
			default:
				if high > lastHigh {
					lastHighIdx, lastHigh = i, high
				}
				if low < lastLow {
					lastLowIdx, lastLow = i, low
				}
			}

		case 1:
			if high > lastHigh {
				lastHighIdx, lastHigh = i, high
			} else if low < lastHigh*(1-deviation) && barsOK(i, lastHighIdx) {
				trend = -1
				add(lastHighIdx, PivotHigh, lastHigh)
				lastLowIdx, lastLow = i, low
			}

		case -1:
			if low < lastLow {
				lastLowIdx, lastLow = i, low
			} else if high > lastLow*(1+deviation) && barsOK(i, lastLowIdx) {
				trend = 1
				add(lastLowIdx, PivotLow, lastLow)
				lastHighIdx, lastHigh = i, high
			}
		}
	}

	// The running extreme is reported as a pending pivot
	switch trend {
	case 1:
		add(lastHighIdx, PivotHigh, lastHigh)
	case -1:
		add(lastLowIdx, PivotLow, lastLow)
	}

	return collapse(pivots)
}

// collapse orders pivots by bar index; a later pivot on the same bar replaces an earlier one.
func collapse(pivots []Pivot) []Pivot {
	byIndex := make(map[int]Pivot, len(pivots))
	for _, p := range pivots {
		byIndex[p.Index] = p
	}
	out := make([]Pivot, 0, len(byIndex))
	for _, p := range byIndex {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// DynamicDeviation scales the ZigZag deviation with recent volatility:
// mean ATR over the last ATRWindow bars, times ATRMultiplier, over the last close.
func DynamicDeviation(bars []types.Bar, params ZigZagParams) float64 {
	deviation := fallbackDeviation
	if len(bars) > 0 {
		price := bars[len(bars)-1].Close
		avgATR := TailMean(ATR(bars, params.ATRPeriod), params.ATRWindow)
		if !math.IsNaN(avgATR) && price != 0 {
			deviation = avgATR * params.ATRMultiplier / price
		}
	}
	return math.Max(deviation, params.MinDeviation)
}

// DynamicZigZag runs ZigZag with a volatility-scaled deviation and returns the
// pivots together with the deviation used.
func DynamicZigZag(bars []types.Bar, params ZigZagParams) ([]Pivot, float64) {
	deviation := DynamicDeviation(bars, params)
	return ZigZag(bars, deviation, params.MinBars), deviation
}
