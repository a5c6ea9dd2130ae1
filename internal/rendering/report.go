package rendering

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jonathan/setup-scanner/internal/types"
)

//go:embed templates/report.html.tmpl
var defaultTemplate string

// ReportData represents the data structure passed to the report template.
// Every number is pre-formatted so templates stay free of formatting logic.
type ReportData struct {
	RunDate     string
	RunID       string
	GeneratedAt string
	Threshold   string
	Source      string
	Rule        string
	Scanned     string
	Retained    string
	Errored     string
	Rows        []Row
	Errors      []ErrorRow
	Charts      []Chart
}

// Row is one retained candidate in ranked order.
type Row struct {
	Rank           int
	ID             string
	Direction      string
	DirectionClass string
	Quantity       string
	Target         string
	Distance       string
	Metadata       []KeyValue
	Detail         string
}

// KeyValue is a metadata entry, kept in key order.
type KeyValue struct {
	Key   string
	Value string
}

// ErrorRow is one candidate excluded by a per-item error.
type ErrorRow struct {
	ID     string
	Kind   string
	Reason string
}

// Renderer renders reports from a parsed template. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the template at templatePath, or the embedded default
// template when templatePath is empty.
func NewRenderer(templatePath string) (*Renderer, error) {
	content := defaultTemplate
	name := "report"
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &TemplateError{
					Message: fmt.Sprintf("template file not found: %s", templatePath),
					Cause:   err,
				}
			}
			return nil, &TemplateError{
				Message: fmt.Sprintf("failed to read template file: %s", templatePath),
				Cause:   err,
			}
		}
		content = string(data)
		name = templatePath
	}

	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render produces the report document for a ranked result. Output depends only
// on its inputs, so equal inputs render byte-identical reports.
func (r *Renderer) Render(meta types.RunMetadata, result *types.ScanResult) ([]byte, error) {
	if result == nil {
		return nil, &RenderError{Message: "scan result is nil"}
	}

	data := BuildReportData(meta, result)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return buf.Bytes(), nil
}

// BuildReportData constructs the template data from run metadata and a ranked result.
func BuildReportData(meta types.RunMetadata, result *types.ScanResult) *ReportData {
	p := message.NewPrinter(language.English)

	data := &ReportData{
		RunDate:     meta.RunDate.Format(time.DateOnly),
		RunID:       meta.RunID.String(),
		GeneratedAt: meta.GeneratedAt.UTC().Format(time.RFC3339),
		Threshold:   formatThreshold(p, meta.Threshold),
		Source:      meta.Source,
		Rule:        meta.Rule,
		Scanned:     p.Sprintf("%d", result.Scanned),
		Retained:    p.Sprintf("%d", result.Retained()),
		Errored:     p.Sprintf("%d", result.Errored()),
		Rows:        make([]Row, 0, len(result.Matches)),
		Errors:      make([]ErrorRow, 0, len(result.Errors)),
	}

	for i := range result.Matches {
		m := &result.Matches[i]
		row := Row{
			Rank:      i + 1,
			ID:        m.ID(),
			Direction: m.Direction,
			Quantity:  p.Sprintf("%.2f", m.Quantity),
			Target:    p.Sprintf("%.2f", m.Target),
			Distance:  p.Sprintf("%.2f", m.Distance),
			Detail:    m.Detail,
		}
		switch m.Direction {
		case types.DirectionBullish:
			row.DirectionClass = "bullish"
		case types.DirectionBearish:
			row.DirectionClass = "bearish"
		}
		if row.Direction == "" {
			row.Direction = "-"
		}
		for _, k := range m.Candidate.MetadataKeys() {
			row.Metadata = append(row.Metadata, KeyValue{Key: k, Value: m.Candidate.Metadata[k]})
		}
		data.Rows = append(data.Rows, row)

		if chart, ok := buildChart(p, m); ok {
			data.Charts = append(data.Charts, chart)
		}
	}

	for _, e := range result.Errors {
		data.Errors = append(data.Errors, ErrorRow(e))
	}

	return data
}

// formatThreshold shows two decimals unless the threshold needs more.
func formatThreshold(p *message.Printer, threshold float64) string {
	exact := strconv.FormatFloat(threshold, 'f', -1, 64)
	if i := strings.IndexByte(exact, '.'); i >= 0 && len(exact)-i-1 > 2 {
		return p.Sprintf("%.*f", len(exact)-i-1, threshold)
	}
	return p.Sprintf("%.2f", threshold)
}
