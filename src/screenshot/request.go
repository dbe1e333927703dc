package screenshot

import (
	"context"
	"log"
	"time"
)

// Capture modes accepted by Request.
const (
	ModeFull   = "full"
	ModeArea   = "area"
	ModeWindow = "window"
)

// Request describes one still capture job, built by the shell from the
// user's settings and executed on a worker.
type Request struct {
	Mode    string
	Region  Region // used by ModeArea
	Delay   time.Duration
	Output  string // destination path, extension selects the format
	Quality int    // JPEG quality, ignored for PNG
}

// Take executes the capture and returns the written file path.
func (r Request) Take(ctx context.Context) (string, error) {
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	switch r.Mode {
	case ModeArea:
		if r.Region.Empty() {
			break
		}
		im, e := CaptureArea(ctx, r.Region)
		if e != nil {
			return "", e
		}
		return r.Output, Save(im, r.Output, r.Quality)
	case ModeWindow:
		region, e := ActiveWindowRegion(ctx)
		if e != nil {
			log.Printf("screenshot: active window lookup failed, capturing full screen: %v", e)
			break
		}
		im, e := CaptureArea(ctx, region)
		if e != nil {
			return "", e
		}
		return r.Output, Save(im, r.Output, r.Quality)
	}

	// ModeFull, or any mode that fell through to a full grab.
	im, err := CaptureFull(ctx)
	if err != nil {
		return "", err
	}
	return r.Output, Save(im, r.Output, r.Quality)
}
