// Package screenshot captures still images of the screen. It shells out to
// scrot when available (most reliable on X11) and falls back to a library
// grab, so callers always get an image when a display exists.
package screenshot

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kbinani "github.com/kbinani/screenshot"
)

const grabTimeout = 8 * time.Second

// DisplayBounds returns the bounds of the primary display.
func DisplayBounds() (image.Rectangle, error) {
	n := kbinani.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return kbinani.GetDisplayBounds(0), nil
}

// CaptureFull captures the entire primary display. It tries scrot first so
// the result matches what compositors actually show, then falls back to a
// direct library grab.
func CaptureFull(ctx context.Context) (image.Image, error) {
	if _, err := exec.LookPath("scrot"); err == nil {
		img, err := grabWithScrot(ctx, nil)
		if err == nil {
			return img, nil
		}
		log.Printf("screenshot: scrot full grab failed, using library: %v", err)
	}
	bounds, err := DisplayBounds()
	if err != nil {
		return nil, err
	}
	return kbinani.CaptureRect(bounds)
}

// CaptureArea captures a specific region of the screen.
func CaptureArea(ctx context.Context, region Region) (image.Image, error) {
	if region.Empty() {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}
	if _, err := exec.LookPath("scrot"); err == nil {
		img, err := grabWithScrot(ctx, &region)
		if err == nil {
			return img, nil
		}
		log.Printf("screenshot: scrot area grab failed, using library: %v", err)
	}
	bounds := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	return kbinani.CaptureRect(bounds)
}

// ActiveWindowRegion resolves the geometry of the currently focused window
// via xdotool. Callers fall back to a full-screen grab when it fails.
func ActiveWindowRegion(ctx context.Context) (Region, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "xdotool", "getactivewindow").Output()
	if err != nil {
		return Region{}, fmt.Errorf("xdotool getactivewindow: %w", err)
	}
	wid := strings.TrimSpace(string(out))

	geo, err := exec.CommandContext(ctx, "xdotool", "getwindowgeometry", "--shell", wid).Output()
	if err != nil {
		return Region{}, fmt.Errorf("xdotool getwindowgeometry: %w", err)
	}

	vals := map[string]int{}
	for _, line := range strings.Split(string(geo), "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			vals[strings.TrimSpace(key)] = n
		}
	}
	r := Region{X: vals["X"], Y: vals["Y"], Width: vals["WIDTH"], Height: vals["HEIGHT"]}
	if r.Empty() {
		return Region{}, fmt.Errorf("xdotool reported empty window geometry")
	}
	return r, nil
}

// Save encodes img to path. Format is chosen by extension: .jpg/.jpeg use
// JPEG with the given quality, everything else is written as PNG.
func Save(img image.Image, path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		if quality <= 0 || quality > 100 {
			quality = 95
		}
		return jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	default:
		return png.Encode(f, img)
	}
}

func grabWithScrot(ctx context.Context, region *Region) (image.Image, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("screencap_grab_%d.png", os.Getpid()))
	defer os.Remove(tmp)

	args := []string{"--overwrite"}
	if region != nil {
		args = append(args, "--area", fmt.Sprintf("%d,%d,%d,%d", region.X, region.Y, region.Width, region.Height))
	}
	args = append(args, tmp)

	ctx, cancel := context.WithTimeout(ctx, grabTimeout)
	defer cancel()
	if err := exec.CommandContext(ctx, "scrot", args...).Run(); err != nil {
		return nil, fmt.Errorf("scrot: %w", err)
	}

	f, err := os.Open(tmp)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scrot output: %w", err)
	}
	return img, nil
}
