package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/setup-scanner/internal/types"
)

// DefaultUserAgent is the user agent string for feed requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; SetupScanner/1.0)"

// maxFeedBytes bounds the size of a feed read over HTTP.
const maxFeedBytes = 32 << 20

// HTTPOptions configures the HTTP source.
type HTTPOptions struct {
	UserAgent string
	Headers   map[string]string
	Client    *http.Client
}

// DefaultHTTPOptions returns sensible defaults for fetching.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{UserAgent: DefaultUserAgent}
}

// HTTPSource fetches a candidate feed or an HTML table page over HTTP.
// The run context bounds the request; there is no separate client timeout.
type HTTPSource struct {
	url  string
	opts Options
}

// NewHTTPSource returns a source for the feed at rawURL.
func NewHTTPSource(rawURL string, opts Options) *HTTPSource {
	return &HTTPSource{url: rawURL, opts: opts}
}

// Name implements DataSource.
func (s *HTTPSource) Name() string {
	if u, err := url.Parse(s.url); err == nil {
		return "http:" + u.Redacted()
	}
	return "http:" + s.url
}

// FetchCandidates implements DataSource.
func (s *HTTPSource) FetchCandidates(ctx context.Context, day time.Time) ([]types.Candidate, error) {
	body, contentType, err := s.get(ctx, day)
	if err != nil {
		return nil, err
	}

	format := s.opts.Format
	if format == "" {
		format = formatForContentType(contentType, s.url)
	}

	if format == FormatHTML {
		candidates, err := ParseHTMLTable(bytes.NewReader(body), s.opts.TableSelector)
		if err != nil {
			return nil, failure(s.Name(), "failed to parse HTML table", err)
		}
		return candidates, nil
	}

	feed, err := DecodeFeed(body, format)
	if err != nil {
		return nil, failure(s.Name(), "invalid feed", err)
	}
	warnStale(s.opts.logger(), s.Name(), feed, day)
	return feed.Candidates, nil
}

func (s *HTTPSource) get(ctx context.Context, day time.Time) ([]byte, string, error) {
	httpOpts := s.opts.HTTP
	if httpOpts == nil {
		httpOpts = DefaultHTTPOptions()
	}

	// Validate URL
	parsedURL, err := url.Parse(s.url)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, "", failure(s.Name(), "invalid URL", err)
	}

	// Expand a {date} placeholder so dated feeds can be addressed
	target := strings.ReplaceAll(s.url, "%7Bdate%7D", day.Format(time.DateOnly))
	target = strings.ReplaceAll(target, "{date}", day.Format(time.DateOnly))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", failure(s.Name(), "failed to create request", err)
	}

	userAgent := httpOpts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range httpOpts.Headers {
		req.Header.Set(key, value)
	}

	client := httpOpts.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", failure(s.Name(), "HTTP request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", failure(s.Name(), fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, "", failure(s.Name(), "failed to read response body", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func formatForContentType(contentType, rawURL string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return FormatHTML
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	case strings.Contains(ct, "json"):
		return FormatJSON
	}
	if u, err := url.Parse(rawURL); err == nil {
		return formatFor("", u.Path)
	}
	return FormatJSON
}
