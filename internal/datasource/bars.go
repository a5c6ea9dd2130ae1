package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/types"
	"github.com/jonathan/setup-scanner/internal/universe"
)

// BarsSource turns a directory of SYMBOL.csv OHLCV files into candidates with
// price history. The candidate quantity is the last close on or before the run day.
type BarsSource struct {
	dir     string
	symbols []string // nil means every CSV file in dir
	logger  *zap.Logger
}

// NewBarsSource returns a source over dir, scoped to opts.Universe when set.
func NewBarsSource(dir string, opts Options) (*BarsSource, error) {
	if dir == "" {
		return nil, &scanerr.ConfigError{Field: "source", Message: "bars:// needs a directory"}
	}

	var symbols []string
	if len(opts.Universe) > 0 {
		var err error
		symbols, err = universe.Lookup(opts.Universe)
		if err != nil {
			return nil, &scanerr.ConfigError{Field: "universe", Message: err.Error()}
		}
	}

	return &BarsSource{dir: dir, symbols: symbols, logger: opts.logger()}, nil
}

// Name implements DataSource.
func (s *BarsSource) Name() string {
	return "bars:" + s.dir
}

// FetchCandidates implements DataSource. A universe symbol without a file is
// still returned, without bars, so it shows up as unresolvable in the report.
func (s *BarsSource) FetchCandidates(ctx context.Context, day time.Time) ([]types.Candidate, error) {
	symbols := s.symbols
	if symbols == nil {
		var err error
		symbols, err = s.listSymbols()
		if err != nil {
			return nil, failure(s.Name(), "failed to list bar files", err)
		}
	}

	candidates := make([]types.Candidate, 0, len(symbols))
	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Debug("Loading bars",
			zap.String("symbol", symbol),
			zap.Int("position", i+1),
			zap.Int("total", len(symbols)))

		bars, err := readBarFile(filepath.Join(s.dir, symbol+".csv"), day)
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("No bar file", zap.String("symbol", symbol))
			candidates = append(candidates, types.Candidate{ID: symbol})
			continue
		}
		if err != nil {
			return nil, failure(s.Name(), fmt.Sprintf("failed to read bars for %s", symbol), err)
		}

		c := types.Candidate{ID: symbol, Bars: bars}
		if last, ok := c.LastClose(); ok {
			c.Quantity = last
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

func (s *BarsSource) listSymbols() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(symbols)
	return symbols, nil
}

func readBarFile(path string, day time.Time) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadBars(f, day)
}

// ReadBars parses OHLCV rows with a Date,Open,High,Low,Close[,Volume] header
// (any column order, case-insensitive). Rows with a missing or non-finite
// price are skipped, as are rows dated after day when day is set. Bars are
// returned in date order.
func ReadBars(r io.Reader, day time.Time) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	cutoff := ""
	if !day.IsZero() {
		cutoff = day.Format(time.DateOnly)
	}

	var bars []types.Bar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		bar, ok := parseBar(record, cols)
		if !ok {
			continue
		}
		if cutoff != "" && dateKey(bar.Date) > cutoff {
			continue
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return dateKey(bars[i].Date) < dateKey(bars[j].Date)
	})
	return bars, nil
}

func parseBar(record []string, cols map[string]int) (types.Bar, bool) {
	field := func(name string) (float64, bool) {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}

	i := cols["date"]
	if i >= len(record) || strings.TrimSpace(record[i]) == "" {
		return types.Bar{}, false
	}
	bar := types.Bar{Date: strings.TrimSpace(record[i])}

	var ok bool
	if bar.High, ok = field("high"); !ok {
		return types.Bar{}, false
	}
	if bar.Low, ok = field("low"); !ok {
		return types.Bar{}, false
	}
	if bar.Close, ok = field("close"); !ok {
		return types.Bar{}, false
	}
	if bar.Open, ok = field("open"); !ok {
		bar.Open = bar.Close
	}
	bar.Volume, _ = field("volume")
	return bar, true
}

// dateKey trims a timestamp such as "2024-01-02 00:00:00" to its date.
func dateKey(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}
