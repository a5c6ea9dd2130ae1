// Package datasource provides the adapters that supply candidates to a scan.
//
// A source is selected by URI:
//
//	feed.json, feed.yaml        candidate feed file
//	http(s)://...               candidate feed or HTML table served over HTTP
//	postgres://...              candidates table in PostgreSQL
//	sqlite://path               candidates table in SQLite
//	bars://dir                  directory of SYMBOL.csv OHLCV files
package datasource

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/types"
)

// Payload formats understood by file and HTTP sources.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
)

// DefaultTable is the table queried by database sources.
const DefaultTable = "candidates"

// DataSource supplies the candidates for one run day.
// Sources holding connections also implement io.Closer.
type DataSource interface {
	Name() string
	FetchCandidates(ctx context.Context, day time.Time) ([]types.Candidate, error)
}

// Options configures source construction.
type Options struct {
	Format        string   // Payload format override for file and HTTP sources
	Universe      []string // Universe names scoping a bars:// directory
	Table         string   // Table name for database sources
	TableSelector string   // CSS selector for the HTML table; defaults to "table"
	HTTP          *HTTPOptions
	Logger        *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) table() string {
	if o.Table == "" {
		return DefaultTable
	}
	return o.Table
}

// Open constructs the source named by uri. Sources that connect eagerly
// (databases) do so here, bounded by ctx.
func Open(ctx context.Context, uri string, opts Options) (DataSource, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, &scanerr.ConfigError{Field: "source", Message: "is empty"}
	}
	if opts.Format != "" {
		switch opts.Format {
		case FormatJSON, FormatYAML, FormatHTML:
		default:
			return nil, &scanerr.ConfigError{Field: "source_format", Message: fmt.Sprintf("unsupported format %q", opts.Format)}
		}
	}

	switch Scheme(uri) {
	case "http", "https":
		return NewHTTPSource(uri, opts), nil
	case "postgres", "postgresql":
		return OpenPostgres(ctx, uri, opts)
	case "sqlite":
		return OpenSQLite(ctx, strings.TrimPrefix(uri, "sqlite://"), opts)
	case "bars":
		return NewBarsSource(strings.TrimPrefix(uri, "bars://"), opts)
	case "file":
		return NewFileSource(strings.TrimPrefix(uri, "file://"), opts), nil
	case "":
		return NewFileSource(uri, opts), nil
	default:
		return nil, &scanerr.ConfigError{Field: "source", Message: fmt.Sprintf("unsupported source scheme in %q", uri)}
	}
}

// Scheme returns the lower-cased URI scheme, or "" for plain paths.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}

// PricesOnly reports whether the source supplies bars rather than targets,
// in which case the measured-move rule is the natural default.
func PricesOnly(uri string) bool {
	return Scheme(uri) == "bars"
}

// Close closes src if it holds resources.
func Close(src DataSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// formatFor picks the payload format from the override or the path extension.
func formatFor(override, path string) string {
	if override != "" {
		return override
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatJSON
	}
}

func failure(source, message string, cause error) error {
	return &scanerr.DataSourceError{Source: source, Message: message, Cause: cause}
}
