package selection

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"screencap/src/screenshot"
)

const (
	// Native tools get a generous bound; the user may think for a while
	// mid-drag. Past it the tool is killed and the session is Cancelled.
	nativeToolTimeout = 60 * time.Second

	// Results smaller than this are treated as accidental clicks.
	nativeMinSpan = 4
)

// runOutcome is the result of one external tool invocation.
type runOutcome struct {
	stdout   string
	exitZero bool
	err      error // spawn or timeout error, not a non-zero exit
}

// commandRunner executes a selection tool. Injectable for tests.
type commandRunner func(ctx context.Context, timeout time.Duration, name string, args ...string) runOutcome

// slopPicker drives slop, a dedicated rubber-band selection tool that works
// with any compositor and reports the true screen offset.
type slopPicker struct {
	run      commandRunner
	lookPath func(string) (string, error)
}

func newSlopPicker() *slopPicker {
	return &slopPicker{run: runTool, lookPath: exec.LookPath}
}

func (p *slopPicker) name() string { return "slop" }

func (p *slopPicker) attempt(ctx context.Context) (Result, bool) {
	if _, err := p.lookPath("slop"); err != nil {
		return Result{}, false
	}

	out := p.run(ctx, nativeToolTimeout, "slop",
		"--highlight",
		"--tolerance=0",
		"--color=0.91,0.27,0.38,0.4",
		"--bordersize=2",
		"--padding=0",
		"--format=%x %y %w %h",
	)
	if out.err != nil || !out.exitZero {
		// Non-zero exit is how slop reports Escape; a timeout or spawn
		// failure gets the same treatment.
		return Result{Cancelled: true}, true
	}

	region, err := parseSlopOutput(out.stdout)
	if err != nil {
		return Result{Cancelled: true}, true
	}
	return Result{Region: region}, true
}

func parseSlopOutput(out string) (screenshot.Region, error) {
	parts := strings.Fields(strings.TrimSpace(out))
	if len(parts) != 4 {
		return screenshot.Region{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return screenshot.Region{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = n
	}
	r := screenshot.Region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if r.Width <= nativeMinSpan || r.Height <= nativeMinSpan {
		return screenshot.Region{}, errors.New("selection too small")
	}
	return r, nil
}

// scrotPicker drives scrot's select-and-save mode. The tool reports only the
// saved image's dimensions, never its screen offset, so the result is
// anchored at the origin and carries the saved file for callers that need
// the actual pixels. This is a documented limitation of the tool, not
// something to paper over with an offset guess.
type scrotPicker struct {
	run      commandRunner
	lookPath func(string) (string, error)
	tmpPath  func() string
}

func newScrotPicker() *scrotPicker {
	return &scrotPicker{
		run:      runTool,
		lookPath: exec.LookPath,
		tmpPath: func() string {
			return filepath.Join(os.TempDir(), fmt.Sprintf("screencap_sel_%d.png", os.Getpid()))
		},
	}
}

func (p *scrotPicker) name() string { return "scrot" }

func (p *scrotPicker) attempt(ctx context.Context) (Result, bool) {
	if _, err := p.lookPath("scrot"); err != nil {
		return Result{}, false
	}

	tmp := p.tmpPath()
	out := p.run(ctx, nativeToolTimeout, "scrot", "--select", "--overwrite", tmp)
	if out.err != nil || !out.exitZero {
		os.Remove(tmp)
		return Result{Cancelled: true}, true
	}

	w, h, err := pngDimensions(tmp)
	if err != nil || w <= nativeMinSpan || h <= nativeMinSpan {
		os.Remove(tmp)
		return Result{Cancelled: true}, true
	}
	return Result{
		Region:     screenshot.Region{Width: w, Height: h},
		SavedImage: tmp,
	}, true
}

func pngDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) runOutcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return runOutcome{stdout: string(stdout), exitZero: false}
		}
		return runOutcome{err: err}
	}
	return runOutcome{stdout: string(stdout), exitZero: true}
}
