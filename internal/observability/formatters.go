// Package observability provides logging setup and formatted console output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/setup-scanner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted console output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunHeader outputs the run parameters before scanning starts.
func (p *Printer) PrintRunHeader(meta types.RunMetadata) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run date:   %s\n", meta.RunDate.Format(time.DateOnly)))
	sb.WriteString(fmt.Sprintf("Threshold:  %g%%\n", meta.Threshold))
	sb.WriteString(fmt.Sprintf("Source:     %s\n", meta.Source))
	sb.WriteString(fmt.Sprintf("Rule:       %s\n", meta.Rule))
	sb.WriteString(fmt.Sprintf("Run ID:     %s", meta.RunID))

	p.printBox("DAILY SCAN", sb.String())
}

// PrintTopMatches outputs the closest ranked matches.
func (p *Printer) PrintTopMatches(result *types.ScanResult) {
	if result == nil || len(result.Matches) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(result.Matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := result.Matches[i]
		sb.WriteString(fmt.Sprintf("#%d  %-10s %8.2f%%  (%.2f -> %.2f)", i+1, m.ID(), m.Distance, m.Quantity, m.Target))
		if m.Direction != "" {
			sb.WriteString(" " + m.Direction)
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(result.Matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(result.Matches)-maxItemsToShow))
	}

	p.printBox("CLOSEST TO TARGET D", sb.String())
}

// PrintItemErrors outputs candidates excluded by per-item errors.
func (p *Printer) PrintItemErrors(result *types.ScanResult) {
	if result == nil || len(result.Errors) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(result.Errors), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := result.Errors[i]
		sb.WriteString(fmt.Sprintf("• %s [%s] %s", e.ID, e.Kind, e.Reason))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(result.Errors) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(result.Errors)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("EXCLUDED (%d)", len(result.Errors)), sb.String())
}

// PrintScanSummary outputs the closing counts line and the report location.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintScanSummary(result *types.ScanResult, reportPath string) {
	if result == nil {
		return
	}
	p.PrintTopMatches(result)
	p.PrintItemErrors(result)

	fmt.Fprintf(p.out, "%d scanned, %d retained, %d errored\n", result.Scanned, result.Retained(), result.Errored())
	fmt.Fprintf(p.out, "Found %d opportunities.\n", result.Retained())
	if reportPath != "" {
		fmt.Fprintf(p.out, "Report generated: %s\n", reportPath)
	}
}
