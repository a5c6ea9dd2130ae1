package hooks

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Runner starts an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// Opener opens the report with the platform's default handler.
type Opener struct {
	GOOS string // Defaults to runtime.GOOS
	Run  Runner // Defaults to running the command and waiting for it
}

// Name implements Hook.
func (o *Opener) Name() string {
	return "open"
}

// AfterReport implements Hook.
func (o *Opener) AfterReport(ctx context.Context, reportPath string) error {
	abs, err := filepath.Abs(reportPath)
	if err != nil {
		return fmt.Errorf("failed to resolve report path: %w", err)
	}

	name, args, err := openCommand(o.goos(), abs)
	if err != nil {
		return err
	}

	run := o.Run
	if run == nil {
		run = execRunner
	}
	if err := run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to open %s with %s: %w", abs, name, err)
	}
	return nil
}

func (o *Opener) goos() string {
	if o.GOOS == "" {
		return runtime.GOOS
	}
	return o.GOOS
}

func openCommand(goos, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "windows":
		return "cmd", []string{"/c", "start", "", path}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return "xdg-open", []string{path}, nil
	default:
		return "", nil, fmt.Errorf("no default opener for %s", goos)
	}
}

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
