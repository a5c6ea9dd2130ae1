package hooks

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultPDFTimeout bounds a headless browser export.
const DefaultPDFTimeout = 30 * time.Second

// Printer renders the page at pageURL to PDF bytes.
type Printer func(ctx context.Context, pageURL string) ([]byte, error)

// PDFExporter prints the report to a PDF next to it using headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
type PDFExporter struct {
	Timeout time.Duration
	Print   Printer // Defaults to headless Chrome
}

// Name implements Hook.
func (e *PDFExporter) Name() string {
	return "pdf"
}

// PDFPath returns the export path for a report: the same name with a .pdf extension.
func PDFPath(reportPath string) string {
	return strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + ".pdf"
}

// AfterReport implements Hook.
func (e *PDFExporter) AfterReport(ctx context.Context, reportPath string) error {
	abs, err := filepath.Abs(reportPath)
	if err != nil {
		return fmt.Errorf("failed to resolve report path: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	printPDF := e.Print
	if printPDF == nil {
		printPDF = chromePrint
	}

	fileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	data, err := printPDF(ctx, fileURL)
	if err != nil {
		return fmt.Errorf("PDF export failed: %w", err)
	}

	if err := os.WriteFile(PDFPath(abs), data, 0644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func chromePrint(ctx context.Context, pageURL string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser rendering failed: %w", err)
	}
	return pdf, nil
}
