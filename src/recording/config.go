// Package recording builds ffmpeg command lines from recording settings and
// owns the lifetime of the encoder process, including graceful and forced
// termination.
package recording

import (
	"screencap/src/screenshot"
)

// WebcamPosition is the corner the webcam overlay is pinned to.
type WebcamPosition string

const (
	WebcamBottomRight WebcamPosition = "bottom-right"
	WebcamBottomLeft  WebcamPosition = "bottom-left"
	WebcamTopRight    WebcamPosition = "top-right"
	WebcamTopLeft     WebcamPosition = "top-left"
)

// WebcamSize selects the overlay size class.
type WebcamSize string

const (
	WebcamSmall  WebcamSize = "small"  // 240x180
	WebcamMedium WebcamSize = "medium" // 320x240
	WebcamLarge  WebcamSize = "large"  // 480x360
)

// Config is the immutable description of one recording session. It is built
// once by the shell and never mutated after the encoder starts.
type Config struct {
	Region     screenshot.Region // zero region records the full screen
	FPS        int
	Quality    int // tier 0-4, see qualityTable
	Audio      bool
	Webcam     bool
	WebcamPos  WebcamPosition
	WebcamSize WebcamSize
	OutputPath string // extension is replaced by the builder
}
