package hooks

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHook struct {
	name  string
	err   error
	calls *[]string
}

func (h recordingHook) Name() string { return h.name }

func (h recordingHook) AfterReport(_ context.Context, path string) error {
	*h.calls = append(*h.calls, h.name+":"+path)
	return h.err
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	var calls []string
	hooks := []Hook{
		recordingHook{name: "first", err: errors.New("boom"), calls: &calls},
		recordingHook{name: "second", calls: &calls},
	}

	errs := RunAll(context.Background(), hooks, "r.html", zap.NewNop())

	assert.Equal(t, []string{"first:r.html", "second:r.html"}, calls)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "boom")
}

func TestRunAll_StopsWhenContextDone(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := RunAll(ctx, []Hook{recordingHook{name: "x", calls: &calls}}, "r.html", nil)
	assert.Empty(t, calls)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestOpener_PlatformCommands(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args int
	}{
		{"darwin", "open", 1},
		{"linux", "xdg-open", 1},
		{"freebsd", "xdg-open", 1},
		{"windows", "cmd", 4},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var gotName string
			var gotArgs []string
			o := &Opener{GOOS: tt.goos, Run: func(_ context.Context, name string, args ...string) error {
				gotName, gotArgs = name, args
				return nil
			}}

			require.NoError(t, o.AfterReport(context.Background(), "daily_report_2024-05-01.html"))
			assert.Equal(t, tt.name, gotName)
			require.Len(t, gotArgs, tt.args)
			assert.True(t, filepath.IsAbs(gotArgs[len(gotArgs)-1]))
		})
	}
}

func TestOpener_Errors(t *testing.T) {
	o := &Opener{GOOS: "plan9", Run: func(context.Context, string, ...string) error { return nil }}
	err := o.AfterReport(context.Background(), "r.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default opener")

	o = &Opener{GOOS: "linux", Run: func(context.Context, string, ...string) error { return errors.New("not installed") }}
	err = o.AfterReport(context.Background(), "r.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xdg-open")
	assert.Equal(t, "open", o.Name())
}

func TestPDFPath(t *testing.T) {
	assert.Equal(t, "out/daily_report_2024-05-01.pdf", PDFPath("out/daily_report_2024-05-01.html"))
	assert.Equal(t, "report.pdf", PDFPath("report"))
}

func TestPDFExporter_WritesPrintedBytes(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "daily_report_2024-05-01.html")
	require.NoError(t, os.WriteFile(report, []byte("<html><body>hi</body></html>"), 0644))

	var gotURL string
	e := &PDFExporter{Print: func(_ context.Context, pageURL string) ([]byte, error) {
		gotURL = pageURL
		return []byte("%PDF-1.4 fake"), nil
	}}
	require.NoError(t, e.AfterReport(context.Background(), report))

	assert.Equal(t, "file://"+filepath.ToSlash(report), gotURL)
	data, err := os.ReadFile(filepath.Join(dir, "daily_report_2024-05-01.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
	assert.Equal(t, "pdf", e.Name())
}

func TestPDFExporter_PrintFailure(t *testing.T) {
	e := &PDFExporter{Print: func(context.Context, string) ([]byte, error) {
		return nil, errors.New("chrome not found")
	}}
	err := e.AfterReport(context.Background(), filepath.Join(t.TempDir(), "r.html"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF export failed")
}

func TestPDFExporter_HeadlessChrome(t *testing.T) {
	if !chromeAvailable() {
		t.Skip("Chrome/Chromium not installed, skipping browser test")
	}

	dir := t.TempDir()
	report := filepath.Join(dir, "daily_report_2024-05-01.html")
	require.NoError(t, os.WriteFile(report, []byte("<html><body><h1>Report</h1></body></html>"), 0644))

	require.NoError(t, (&PDFExporter{}).AfterReport(context.Background(), report))

	data, err := os.ReadFile(PDFPath(report))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func chromeAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}
