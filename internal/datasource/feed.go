package datasource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/setup-scanner/internal/schemas"
	"github.com/jonathan/setup-scanner/internal/types"
)

// DecodeFeed parses a JSON or YAML candidate feed. YAML is converted to JSON
// first so both formats pass through the same schema. A bare top-level array
// is accepted as the candidate list.
func DecodeFeed(data []byte, format string) (*types.CandidateFeed, error) {
	doc := bytes.TrimSpace(data)
	if format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse YAML feed: %w", err)
		}
		converted, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML feed: %w", err)
		}
		doc = converted
	}

	if len(doc) == 0 {
		return nil, fmt.Errorf("feed is empty")
	}
	if doc[0] == '[' {
		doc = append(append([]byte(`{"candidates":`), doc...), '}')
	}

	if err := schemas.ValidateCandidateFeed(doc); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return nil, fmt.Errorf("feed does not match schema: %s", validationErr.Summary(3))
		}
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var raw feedDocument
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	feed := &types.CandidateFeed{
		AsOf:       raw.AsOf,
		Candidates: make([]types.Candidate, 0, len(raw.Candidates)),
	}
	for _, rc := range raw.Candidates {
		c := types.Candidate{ID: rc.ID, Target: rc.Target, Bars: rc.Bars}
		c.Quantity = feedQuantity(rc.Quantity)
		decodeMetadata(rc.Metadata, &c)
		feed.Candidates = append(feed.Candidates, c)
	}
	return feed, nil
}

// feedDocument mirrors types.CandidateFeed with the loosely typed fields kept raw.
type feedDocument struct {
	AsOf       string          `json:"as_of"`
	Candidates []feedCandidate `json:"candidates"`
}

type feedCandidate struct {
	ID       string          `json:"id"`
	Quantity json.RawMessage `json:"quantity"`
	Target   *float64        `json:"target"`
	Metadata json.RawMessage `json:"metadata"`
	Bars     []types.Bar     `json:"bars"`
}

// feedQuantity maps an absent quantity to zero and a null one to NaN, so the
// candidate is scored (and rejected) on its own.
func feedQuantity(raw json.RawMessage) float64 {
	s := string(bytes.TrimSpace(raw))
	switch s {
	case "":
		return 0
	case "null":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// decodeMetadata reads a JSON metadata object into c. Scalar values are kept
// as strings; a malformed object or a nested value marks c as defective
// rather than failing the whole fetch.
func decodeMetadata(raw []byte, c *types.Candidate) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		markDefect(c, fmt.Sprintf("invalid metadata: %v", err))
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	metadata := make(map[string]string, len(values))
	for _, k := range keys {
		switch v := values[k].(type) {
		case string:
			metadata[k] = v
		case json.Number:
			metadata[k] = v.String()
		case bool:
			metadata[k] = strconv.FormatBool(v)
		case nil:
			metadata[k] = ""
		default:
			markDefect(c, fmt.Sprintf("metadata %q is not a scalar value", k))
			return
		}
	}
	c.Metadata = metadata
}

func markDefect(c *types.Candidate, reason string) {
	if c.Defect == "" {
		c.Defect = reason
	}
}

// warnStale logs when a feed's as_of date differs from the run day.
func warnStale(logger *zap.Logger, source string, feed *types.CandidateFeed, day time.Time) {
	if feed.AsOf == "" || day.IsZero() {
		return
	}
	if want := day.Format(time.DateOnly); feed.AsOf != want {
		logger.Warn("Feed date differs from run date",
			zap.String("source", source),
			zap.String("as_of", feed.AsOf),
			zap.String("run_date", want))
	}
}
