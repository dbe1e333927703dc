package recording

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"screencap/src/audiosource"
	"screencap/src/screenshot"
)

// Environment carries the host facts the builder needs. The caller gathers
// them so the builder itself stays pure: no filesystem access, no process
// spawning, fully deterministic.
type Environment struct {
	ScreenWidth  int
	ScreenHeight int
	Display      string // e.g. ":0"
	WebcamDevice string // e.g. "/dev/video0", empty when absent
}

// Plan is a fully formed encoder invocation.
type Plan struct {
	Args       []string // argv passed to ffmpeg
	OutputPath string   // final output file, extension already applied
}

const overlayMargin = "12"

var webcamScale = map[WebcamSize]string{
	WebcamSmall:  "240:180",
	WebcamMedium: "320:240",
	WebcamLarge:  "480:360",
}

var webcamOverlay = map[WebcamPosition]string{
	WebcamBottomRight: "W-w-" + overlayMargin + ":H-h-" + overlayMargin,
	WebcamBottomLeft:  overlayMargin + ":H-h-" + overlayMargin,
	WebcamTopRight:    "W-w-" + overlayMargin + ":" + overlayMargin,
	WebcamTopLeft:     overlayMargin + ":" + overlayMargin,
}

// Build assembles the ffmpeg argument vector for cfg. audio may be nil when
// cfg.Audio is false.
func Build(cfg Config, audio *audiosource.Source, env Environment) (Plan, error) {
	rect := cfg.Region
	if rect.Empty() {
		rect = screenshot.Region{Width: env.ScreenWidth, Height: env.ScreenHeight}
	}
	rect = rect.EvenSized()

	if rect.Width < 2 || rect.Height < 2 {
		return Plan{}, &ValidationError{
			Reason: fmt.Sprintf("capture area %dx%d is too small", rect.Width, rect.Height),
		}
	}
	if cfg.FPS <= 0 {
		return Plan{}, &ValidationError{Reason: fmt.Sprintf("frame rate %d is not positive", cfg.FPS)}
	}

	display := env.Display
	if display == "" {
		display = ":0"
	}

	q := qualityFor(cfg.Quality)
	ext := ".mp4"
	if cfg.Quality == QualityLossless {
		ext = ".mkv"
	}
	out := strings.TrimSuffix(cfg.OutputPath, filepath.Ext(cfg.OutputPath)) + ext

	args := []string{
		"-y",
		"-f", "x11grab",
		"-r", strconv.Itoa(cfg.FPS),
		"-s", fmt.Sprintf("%dx%d", rect.Width, rect.Height),
		"-i", fmt.Sprintf("%s+%d,%d", display, rect.X, rect.Y),
	}

	audioIdx := 0
	if cfg.Audio && audio != nil {
		audioIdx = 1
		args = append(args, "-f", string(audio.Driver), "-i", audio.Name)
	}

	webcamIdx := 0
	if cfg.Webcam && env.WebcamDevice != "" {
		webcamIdx = audioIdx + 1
		args = append(args, "-f", "v4l2", "-i", env.WebcamDevice)
	}

	if webcamIdx > 0 {
		scale, ok := webcamScale[cfg.WebcamSize]
		if !ok {
			scale = webcamScale[WebcamSmall]
		}
		pos, ok := webcamOverlay[cfg.WebcamPos]
		if !ok {
			pos = webcamOverlay[WebcamBottomRight]
		}
		graph := fmt.Sprintf("[%d:v]scale=%s,format=yuv420p[cam];[0:v][cam]overlay=%s[out]",
			webcamIdx, scale, pos)
		// Once a filter graph is in play, default stream selection no
		// longer applies; map the composed video and the audio explicitly.
		args = append(args, "-filter_complex", graph, "-map", "[out]")
		if audioIdx > 0 {
			args = append(args, "-map", fmt.Sprintf("%d:a", audioIdx))
		}
	} else {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", rect.Width, rect.Height))
	}

	args = append(args,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(q.CRF),
		"-preset", q.Preset,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
	)
	if audioIdx > 0 {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-ac", "2", "-ar", "44100")
	}

	args = append(args, out)
	return Plan{Args: args, OutputPath: out}, nil
}
