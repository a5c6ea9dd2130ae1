// Package strategy detects measured-move (A-B-C to D) setups in price history.
package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/jonathan/setup-scanner/internal/indicators"
	"github.com/jonathan/setup-scanner/internal/types"
)

const (
	// lookbackPivots limits pattern search to the most recent pivots
	lookbackPivots = 5
	// maxActiveMoves is the number of recent moves considered active
	maxActiveMoves = 5
)

// ErrNotEnoughPivots is returned when fewer than three pivots exist.
var ErrNotEnoughPivots = errors.New("not enough pivots to detect patterns")

// ErrNoPattern is returned when pivots exist but no A-B-C pattern is active.
var ErrNoPattern = errors.New("no active measured move")

// MeasuredMove is an A-B-C swing projected to a target D.
// Bullish: low A, high B, higher low C; D = C + (B - A).
// Bearish: high A, low B, lower high C; D = C - (A - B).
type MeasuredMove struct {
	A            indicators.Pivot
	B            indicators.Pivot
	C            indicators.Pivot
	Target       float64
	Direction    string
	CurrentPrice float64
}

// DistanceFrom returns the percent distance of price from the target.
func (m *MeasuredMove) DistanceFrom(price float64) float64 {
	if m.Target == 0 {
		return math.Inf(1)
	}
	return 100 * math.Abs(price-m.Target) / math.Abs(m.Target)
}

// Describe returns a compact A-B-C summary.
func (m *MeasuredMove) Describe() string {
	return fmt.Sprintf("%s A %.2f (%s) B %.2f (%s) C %.2f (%s)",
		m.Direction, m.A.Price, m.A.Date, m.B.Price, m.B.Date, m.C.Price, m.C.Date)
}

// Levels returns A, B and C at their pivots and D projected at lastIndex.
func (m *MeasuredMove) Levels(lastIndex int) []types.Level {
	return []types.Level{
		{Label: "A", Index: m.A.Index, Date: m.A.Date, Price: m.A.Price},
		{Label: "B", Index: m.B.Index, Date: m.B.Date, Price: m.B.Price},
		{Label: "C", Index: m.C.Index, Date: m.C.Date, Price: m.C.Price},
		{Label: "D", Index: lastIndex, Price: m.Target},
	}
}

// Analysis is the output of a measured-move scan over one bar series.
type Analysis struct {
	Pivots    []indicators.Pivot
	Deviation float64
	Moves     []MeasuredMove
}

// Analyze finds pivots with a dynamic ZigZag and detects measured moves among
// the most recent pivots.
func Analyze(bars []types.Bar, params types.MoveParams) (*Analysis, error) {
	pivots, deviation := indicators.DynamicZigZag(bars, indicators.ZigZagParams{
		ATRPeriod:     params.ATRPeriod,
		ATRWindow:     params.ATRWindow,
		ATRMultiplier: params.ATRMultiplier,
		MinDeviation:  params.MinDeviation,
		MinBars:       params.MinBars,
	})

	analysis := &Analysis{Pivots: pivots, Deviation: deviation}
	if len(pivots) < 3 {
		return analysis, ErrNotEnoughPivots
	}

	current := bars[len(bars)-1].Close
	start := max(0, len(pivots)-lookbackPivots)
	for i := start; i < len(pivots)-2; i++ {
		if move, ok := detect(pivots[i], pivots[i+1], pivots[i+2], current); ok {
			analysis.Moves = append(analysis.Moves, move)
		}
	}

	return analysis, nil
}

// ActiveMoves returns the most recent detected moves.
func (a *Analysis) ActiveMoves() []MeasuredMove {
	if len(a.Moves) > maxActiveMoves {
		return a.Moves[len(a.Moves)-maxActiveMoves:]
	}
	return a.Moves
}

// Nearest returns the active move whose target is closest to price, the
// quantity the candidate will be scored with. Ties go to the most recent move.
func (a *Analysis) Nearest(price float64) (*MeasuredMove, error) {
	active := a.ActiveMoves()
	if len(active) == 0 {
		return nil, ErrNoPattern
	}

	best := len(active) - 1
	for i := len(active) - 2; i >= 0; i-- {
		if active[i].DistanceFrom(price) < active[best].DistanceFrom(price) {
			best = i
		}
	}
	move := active[best]
	return &move, nil
}

func detect(a, b, c indicators.Pivot, current float64) (MeasuredMove, bool) {
	move := MeasuredMove{A: a, B: b, C: c, CurrentPrice: current}

	switch {
	case a.Kind == indicators.PivotLow && b.Kind == indicators.PivotHigh && c.Kind == indicators.PivotLow:
		if c.Price <= a.Price {
			return move, false
		}
		move.Direction = types.DirectionBullish
		move.Target = c.Price + (b.Price - a.Price)
		return move, true

	case a.Kind == indicators.PivotHigh && b.Kind == indicators.PivotLow && c.Kind == indicators.PivotHigh:
		if c.Price >= a.Price {
			return move, false
		}
		move.Direction = types.DirectionBearish
		move.Target = c.Price - (a.Price - b.Price)
		return move, true
	}

	return move, false
}
