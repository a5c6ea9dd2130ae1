package datasource

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/setup-scanner/internal/types"
)

const koCSV = `Date,Open,High,Low,Close,Volume
2024-04-29,59.5,60.2,59.1,60.0,1000
2024-04-30,60.0,61.0,59.8,60.8,1200
2024-05-01,60.8,61.5,60.5,61.2,900
2024-05-02,61.2,62.0,61.0,61.9,1100
`

func TestReadBars(t *testing.T) {
	bars, err := ReadBars(strings.NewReader(koCSV), time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 4)

	want := types.Bar{Date: "2024-04-29", Open: 59.5, High: 60.2, Low: 59.1, Close: 60.0, Volume: 1000}
	if diff := cmp.Diff(want, bars[0]); diff != "" {
		t.Errorf("first bar mismatch (-want +got):\n%s", diff)
	}
}

func TestReadBars_CutoffAtRunDay(t *testing.T) {
	bars, err := ReadBars(strings.NewReader(koCSV), runDay)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "2024-05-01", bars[2].Date)
}

func TestReadBars_DropsIncompleteRowsAndSorts(t *testing.T) {
	csv := `date,close,high,low
2024-01-03 00:00:00,11,12,10
2024-01-02,NaN,12,10
2024-01-01,10,11,9
,10,11,9
2024-01-04,,12,10
2024-01-05,12,13
`
	bars, err := ReadBars(strings.NewReader(csv), time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-01-01", bars[0].Date)
	assert.Equal(t, "2024-01-03 00:00:00", bars[1].Date)
	assert.Equal(t, 11.0, bars[1].Open, "missing open falls back to close")
}

func TestReadBars_MissingColumn(t *testing.T) {
	_, err := ReadBars(strings.NewReader("Date,Open,Close\n2024-01-01,1,1\n"), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing "high" column`)
}

func TestBarsSource_DirectoryListing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KO.csv", koCSV)
	writeFile(t, dir, "AAPL.csv", "Date,High,Low,Close\n2024-04-30,190,185,188\n")
	writeFile(t, dir, "notes.txt", "ignored")

	src, err := NewBarsSource(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, "bars:"+dir, src.Name())

	candidates, err := src.FetchCandidates(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "AAPL", candidates[0].ID)
	assert.Equal(t, 188.0, candidates[0].Quantity)
	assert.Equal(t, "KO", candidates[1].ID)
	assert.Equal(t, 61.2, candidates[1].Quantity, "quantity is the last close on or before the run day")
	assert.Nil(t, candidates[1].Target)
}

func TestBarsSource_UniverseIncludesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KO.csv", koCSV)

	src, err := NewBarsSource(dir, Options{Universe: []string{"dow30"}})
	require.NoError(t, err)

	candidates, err := src.FetchCandidates(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, candidates, 30)

	byID := make(map[string]types.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	assert.NotEmpty(t, byID["KO"].Bars)
	assert.Empty(t, byID["AAPL"].Bars)
}

func TestBarsSource_MissingDirectory(t *testing.T) {
	src, err := NewBarsSource(t.TempDir()+"/absent", Options{})
	require.NoError(t, err)

	_, err = src.FetchCandidates(context.Background(), runDay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list bar files")
}

func TestBarsSource_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KO.csv", koCSV)
	src, err := NewBarsSource(dir, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchCandidates(ctx, runDay)
	assert.ErrorIs(t, err, context.Canceled)
}
