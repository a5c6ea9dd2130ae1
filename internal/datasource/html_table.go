package datasource

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/setup-scanner/internal/types"
)

// Header aliases recognized in HTML tables, after normalization.
var (
	idHeaders       = []string{"id", "symbol", "ticker"}
	quantityHeaders = []string{"quantity", "price", "close", "last"}
	targetHeaders   = []string{"target", "targetd", "d"}
)

// ParseHTMLTable reads candidates from the first table matching selector
// (default "table") that has an identifier column. Columns other than the
// identifier, quantity and target become metadata. A quantity that cannot be
// parsed is kept as NaN so the candidate is reported rather than dropped.
func ParseHTMLTable(r io.Reader, selector string) ([]types.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if selector == "" {
		selector = "table"
	}

	var (
		candidates []types.Candidate
		found      bool
	)
	doc.Find(selector).EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headerRow, headers := tableHeaders(table)
		idCol := indexOf(headers, idHeaders)
		if idCol < 0 {
			return true
		}
		found = true
		candidates = tableRows(table, headerRow, headers, idCol)
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with an id or symbol column matched %q", selector)
	}
	if candidates == nil {
		candidates = []types.Candidate{}
	}
	return candidates, nil
}

func tableHeaders(table *goquery.Selection) (*goquery.Selection, []string) {
	var headers []string
	row := table.Find("thead tr").First()
	if row.Length() == 0 {
		row = table.Find("tr").First()
	}
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, normalizeHeader(cell.Text()))
	})
	return row, headers
}

func tableRows(table, headerRow *goquery.Selection, headers []string, idCol int) []types.Candidate {
	quantityCol := indexOf(headers, quantityHeaders)
	targetCol := indexOf(headers, targetHeaders)

	var candidates []types.Candidate
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.IsSelection(headerRow) {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		values := make([]string, cells.Length())
		cells.Each(func(i int, cell *goquery.Selection) {
			values[i] = strings.TrimSpace(cell.Text())
		})
		if idCol >= len(values) || values[idCol] == "" {
			return
		}

		c := types.Candidate{ID: values[idCol], Quantity: math.NaN()}
		for i, value := range values {
			if i >= len(headers) {
				break
			}
			switch i {
			case idCol:
			case quantityCol:
				if q, ok := parseNumber(value); ok {
					c.Quantity = q
				}
			case targetCol:
				if t, ok := parseNumber(value); ok {
					c.Target = &t
				}
			default:
				if value == "" || headers[i] == "" {
					continue
				}
				if c.Metadata == nil {
					c.Metadata = make(map[string]string)
				}
				c.Metadata[headers[i]] = value
			}
		}
		candidates = append(candidates, c)
	})
	return candidates
}

// normalizeHeader lower-cases a header and keeps only letters, digits and underscores.
func normalizeHeader(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func indexOf(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

// parseNumber accepts values such as "1,234.50", "$95", or "4.2%".
func parseNumber(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", "$", "", "%", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
