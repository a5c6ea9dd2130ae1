package datasource

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/jonathan/setup-scanner/internal/types"
)

// FileSource reads a candidate feed, or an HTML table, from a local file.
type FileSource struct {
	path string
	opts Options
}

// NewFileSource returns a source for the feed at path.
func NewFileSource(path string, opts Options) *FileSource {
	return &FileSource{path: path, opts: opts}
}

// Name implements DataSource.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// FetchCandidates implements DataSource.
func (s *FileSource) FetchCandidates(ctx context.Context, day time.Time) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, failure(s.Name(), "failed to read feed", err)
	}

	format := formatFor(s.opts.Format, s.path)
	if format == FormatHTML {
		candidates, err := ParseHTMLTable(strings.NewReader(string(data)), s.opts.TableSelector)
		if err != nil {
			return nil, failure(s.Name(), "failed to parse HTML table", err)
		}
		return candidates, nil
	}

	feed, err := DecodeFeed(data, format)
	if err != nil {
		return nil, failure(s.Name(), "invalid feed", err)
	}
	warnStale(s.opts.logger(), s.Name(), feed, day)
	return feed.Candidates, nil
}
