package rendering

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/setup-scanner/internal/scanerr"
)

// ReportFileName returns the deterministic report name for a run day.
func ReportFileName(day time.Time) string {
	return fmt.Sprintf("daily_report_%s.html", day.Format(time.DateOnly))
}

// ReportPath joins the output directory and the report name for day.
func ReportPath(outDir string, day time.Time) string {
	if outDir == "" {
		outDir = "."
	}
	return filepath.Join(outDir, ReportFileName(day))
}

// Confirmer decides whether an existing report may be replaced.
type Confirmer interface {
	ConfirmOverwrite(path string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(path string) (bool, error)

// ConfirmOverwrite implements Confirmer.
func (f ConfirmFunc) ConfirmOverwrite(path string) (bool, error) {
	return f(path)
}

// PromptConfirmer asks on Out and reads a y/N answer from In.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// ConfirmOverwrite implements Confirmer. Anything but y or yes declines.
func (c *PromptConfirmer) ConfirmOverwrite(path string) (bool, error) {
	if _, err := fmt.Fprintf(c.Out, "Report %s already exists. Overwrite? [y/N]: ", path); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// WriteOptions controls how an existing report is treated.
type WriteOptions struct {
	Interactive bool      // Ask before replacing an existing report
	Confirm     Confirmer // Required when Interactive
}

// WriteReport writes content to path atomically: the document is written to a
// temporary file in the same directory and renamed into place, so readers see
// either the previous report or the complete new one. In batch mode an existing
// report is replaced; in interactive mode a declined prompt returns
// scanerr.ErrOverwriteDeclined and leaves the existing file untouched. The
// existence check and the rename are separate steps, so a file created in
// between is replaced without a prompt.
func WriteReport(path string, content []byte, opts WriteOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Path: path, Message: "failed to create output directory", Cause: err}
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return &WriteError{Path: path, Message: "path is a directory"}
	case err == nil && opts.Interactive:
		if opts.Confirm == nil {
			return scanerr.ErrOverwriteDeclined
		}
		ok, err := opts.Confirm.ConfirmOverwrite(path)
		if err != nil {
			return &WriteError{Path: path, Message: "failed to confirm overwrite", Cause: err}
		}
		if !ok {
			return scanerr.ErrOverwriteDeclined
		}
	case err != nil && !os.IsNotExist(err):
		return &WriteError{Path: path, Message: "failed to stat report", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, ".daily_report-*.tmp")
	if err != nil {
		return &WriteError{Path: path, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: path, Message: "failed to write report", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: path, Message: "failed to sync report", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Message: "failed to close report", Cause: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return &WriteError{Path: path, Message: "failed to set report permissions", Cause: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &WriteError{Path: path, Message: "failed to move report into place", Cause: err}
	}
	committed = true
	return nil
}
