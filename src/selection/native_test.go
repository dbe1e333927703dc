package selection

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screencap/src/screenshot"
)

func fakeRunner(out runOutcome) commandRunner {
	return func(ctx context.Context, timeout time.Duration, name string, args ...string) runOutcome {
		return out
	}
}

func foundLookPath(string) (string, error)   { return "/usr/bin/tool", nil }
func missingLookPath(string) (string, error) { return "", errors.New("not found") }

func TestSlopResolvesSelection(t *testing.T) {
	p := &slopPicker{
		run:      fakeRunner(runOutcome{stdout: "100 200 300 400\n", exitZero: true}),
		lookPath: foundLookPath,
	}
	res, ok := p.attempt(context.Background())
	require.True(t, ok)
	assert.False(t, res.Cancelled)
	assert.Equal(t, screenshot.Region{X: 100, Y: 200, Width: 300, Height: 400}, res.Region)
}

func TestSlopEscapeIsCancelled(t *testing.T) {
	p := &slopPicker{
		run:      fakeRunner(runOutcome{exitZero: false}),
		lookPath: foundLookPath,
	}
	res, ok := p.attempt(context.Background())
	require.True(t, ok)
	assert.True(t, res.Cancelled)
	assert.True(t, res.Region.Empty(), "cancelled result must never carry a region")
}

func TestSlopMalformedOutputIsCancelled(t *testing.T) {
	for _, out := range []string{"", "garbage", "1 2 3", "10 10 x 40", "0 0 2 2"} {
		p := &slopPicker{
			run:      fakeRunner(runOutcome{stdout: out, exitZero: true}),
			lookPath: foundLookPath,
		}
		res, ok := p.attempt(context.Background())
		require.True(t, ok, "output %q", out)
		assert.True(t, res.Cancelled, "output %q", out)
	}
}

func TestSlopMissingBinarySkips(t *testing.T) {
	p := &slopPicker{run: fakeRunner(runOutcome{}), lookPath: missingLookPath}
	_, ok := p.attempt(context.Background())
	assert.False(t, ok, "missing tool should defer to the next picker")
}

func TestScrotResultIsSizeOnly(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "sel.png")
	writeTestPNG(t, tmp, 300, 150)

	p := &scrotPicker{
		run:      fakeRunner(runOutcome{exitZero: true}),
		lookPath: foundLookPath,
		tmpPath:  func() string { return tmp },
	}
	res, ok := p.attempt(context.Background())
	require.True(t, ok)
	assert.False(t, res.Cancelled)
	assert.Equal(t, screenshot.Region{Width: 300, Height: 150}, res.Region,
		"scrot cannot report offsets, so the region is anchored at the origin")
	assert.Equal(t, tmp, res.SavedImage)
}

func TestScrotFailureCleansUp(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "sel.png")
	writeTestPNG(t, tmp, 300, 150)

	p := &scrotPicker{
		run:      fakeRunner(runOutcome{exitZero: false}),
		lookPath: foundLookPath,
		tmpPath:  func() string { return tmp },
	}
	res, ok := p.attempt(context.Background())
	require.True(t, ok)
	assert.True(t, res.Cancelled)
	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err), "temp image should be removed on failure")
}

func TestScrotTinyImageIsCancelled(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "sel.png")
	writeTestPNG(t, tmp, 3, 3)

	p := &scrotPicker{
		run:      fakeRunner(runOutcome{exitZero: true}),
		lookPath: foundLookPath,
		tmpPath:  func() string { return tmp },
	}
	res, ok := p.attempt(context.Background())
	require.True(t, ok)
	assert.True(t, res.Cancelled)
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}
