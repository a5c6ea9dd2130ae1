package rendering

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/message"

	"github.com/jonathan/setup-scanner/internal/types"
)

// Chart dimensions in SVG user units.
const (
	chartWidth   = 720
	chartHeight  = 240
	chartPadding = 20
	maxChartBars = 250
)

// Chart is an inline SVG of recent closes with the swing levels behind a target.
type Chart struct {
	ID        string
	Direction string
	Target    string
	Width     int
	Height    int
	Points    string
	TargetY   string
	Markers   []Marker
}

// Marker is a labelled swing point on a chart.
type Marker struct {
	Label  string
	Price  string
	X      string
	Y      string
	LabelY string
}

// buildChart plots a candidate's closes when it carries both bars and swing levels.
func buildChart(p *message.Printer, m *types.ScoredCandidate) (Chart, bool) {
	bars := m.Candidate.Bars
	if len(bars) < 2 || len(m.Levels) == 0 {
		return Chart{}, false
	}

	offset := 0
	if len(bars) > maxChartBars {
		offset = len(bars) - maxChartBars
		bars = bars[offset:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, b.Close)
		hi = math.Max(hi, b.Close)
	}
	for _, l := range m.Levels {
		lo = math.Min(lo, l.Price)
		hi = math.Max(hi, l.Price)
	}
	if hi == lo {
		hi = lo + 1
	}

	x := func(i int) float64 {
		return chartPadding + float64(i)*(chartWidth-2*chartPadding)/float64(len(bars)-1)
	}
	y := func(price float64) float64 {
		return chartPadding + (hi-price)*(chartHeight-2*chartPadding)/(hi-lo)
	}

	points := make([]string, len(bars))
	for i, b := range bars {
		points[i] = coord(x(i)) + "," + coord(y(b.Close))
	}

	chart := Chart{
		ID:        m.ID(),
		Direction: m.Direction,
		Target:    p.Sprintf("%.2f", m.Target),
		Width:     chartWidth,
		Height:    chartHeight,
		Points:    strings.Join(points, " "),
		TargetY:   coord(y(m.Target)),
	}

	for _, l := range m.Levels {
		idx := l.Index - offset
		if idx < 0 || idx >= len(bars) {
			continue
		}
		py := y(l.Price)
		labelY := py - 8
		if labelY < 12 {
			labelY = py + 18
		}
		chart.Markers = append(chart.Markers, Marker{
			Label:  l.Label,
			Price:  p.Sprintf("%.2f", l.Price),
			X:      coord(x(idx)),
			Y:      coord(py),
			LabelY: coord(labelY),
		})
	}

	return chart, true
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
