// Package indicators computes price indicators (ATR, ZigZag pivots) over OHLCV bars.
package indicators

import (
	"math"

	"github.com/jonathan/setup-scanner/internal/types"
)

// TrueRange returns the true range of every bar. The first bar has no previous
// close, so its range is high - low.
func TrueRange(bars []types.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, bar := range bars {
		r := bar.High - bar.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			r = math.Max(r, math.Abs(bar.High-prevClose))
			r = math.Max(r, math.Abs(bar.Low-prevClose))
		}
		tr[i] = r
	}
	return tr
}

// ATR returns the simple moving average of the true range over period bars.
// Entries before the first full window are NaN.
func ATR(bars []types.Bar, period int) []float64 {
	atr := make([]float64, len(bars))
	if period <= 0 {
		for i := range atr {
			atr[i] = math.NaN()
		}
		return atr
	}

	tr := TrueRange(bars)
	sum := 0.0
	for i := range tr {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
		}
		if i < period-1 {
			atr[i] = math.NaN()
			continue
		}
		atr[i] = sum / float64(period)
	}
	return atr
}

// TailMean averages the last window values, ignoring NaNs.
// Returns NaN when no value in the window is a number.
func TailMean(values []float64, window int) float64 {
	start := len(values) - window
	if start < 0 {
		start = 0
	}

	sum, n := 0.0, 0
	for _, v := range values[start:] {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
