package messages

import (
	"screencap/src/recording"
	"screencap/src/screenshot"
)

// Message is the base interface for all inter-process messages
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeHotkeyPressed      = "HotkeyPressed"
	TypeStartRegionSelect  = "StartRegionSelection"
	TypeRegionSelected     = "RegionSelected"
	TypeRegionCancelled    = "RegionCancelled"
	TypeCaptureScreenshot  = "CaptureScreenshot"
	TypeScreenshotComplete = "ScreenshotComplete"
	TypeStartRecording     = "StartRecording"
	TypeStopRecording      = "StopRecording"
	TypeRecordingStarted   = "RecordingStarted"
	TypeRecordingStopping  = "RecordingStopping"
	TypeRecordingFinished  = "RecordingFinished"
	TypeRecordingFailed    = "RecordingFailed"
	TypeWriteClipboard     = "WriteClipboard"
	TypeUpdateTray         = "UpdateTray"
	TypeTrayMenuClicked    = "TrayMenuClicked"
	TypeShutdown           = "Shutdown"
)

// Selection targets: what the freshly picked region is for.
const (
	TargetScreenshot = "screenshot"
	TargetRecording  = "recording"
)

// HotkeyPressed - sent by hotkey process when a bound combination is detected
type HotkeyPressed struct {
	Combo string // e.g., "Ctrl+Alt+S"
}

func (m HotkeyPressed) Type() string { return TypeHotkeyPressed }

// StartRegionSelection - sent to the core loop to begin an interactive pick
type StartRegionSelection struct {
	Target string // TargetScreenshot or TargetRecording
}

func (m StartRegionSelection) Type() string { return TypeStartRegionSelect }

// RegionSelected - emitted when the user completes a selection
type RegionSelected struct {
	Region screenshot.Region
	Target string
}

func (m RegionSelected) Type() string { return TypeRegionSelected }

// RegionCancelled - emitted when the user abandons a selection
type RegionCancelled struct {
	Target string
}

func (m RegionCancelled) Type() string { return TypeRegionCancelled }

// CaptureScreenshot - sent to the core loop to grab a still image
type CaptureScreenshot struct {
	Mode   string            // screenshot.ModeFull, ModeArea or ModeWindow
	Region screenshot.Region // used when Mode is ModeArea
	Delay  int               // seconds to wait before the grab
}

func (m CaptureScreenshot) Type() string { return TypeCaptureScreenshot }

// ScreenshotComplete - emitted when a still grab finishes
type ScreenshotComplete struct {
	Path  string
	Error error
}

func (m ScreenshotComplete) Type() string { return TypeScreenshotComplete }

// StartRecording - sent to the core loop to spawn an encoder session
type StartRecording struct {
	Config recording.Config
}

func (m StartRecording) Type() string { return TypeStartRecording }

// StopRecording - sent to the core loop to end the active session gracefully
type StopRecording struct{}

func (m StopRecording) Type() string { return TypeStopRecording }

// RecordingStarted - emitted once the encoder process is up
type RecordingStarted struct {
	OutputPath string
}

func (m RecordingStarted) Type() string { return TypeRecordingStarted }

// RecordingStopping - emitted while the encoder drains its buffers
type RecordingStopping struct{}

func (m RecordingStopping) Type() string { return TypeRecordingStopping }

// RecordingFinished - emitted when a session produced a usable file
type RecordingFinished struct {
	OutputPath string
}

func (m RecordingFinished) Type() string { return TypeRecordingFinished }

// RecordingFailed - emitted when a session died without a usable file
type RecordingFailed struct {
	Message string
}

func (m RecordingFailed) Type() string { return TypeRecordingFailed }

// WriteClipboard - sent to clipboard process to publish a file path
type WriteClipboard struct {
	Text string
}

func (m WriteClipboard) Type() string { return TypeWriteClipboard }

// UpdateTray - sent to tray process to reflect the current status
type UpdateTray struct {
	Tooltip   string
	Recording bool
}

func (m UpdateTray) Type() string { return TypeUpdateTray }

// TrayMenuClicked - sent by tray process when user clicks a menu item
type TrayMenuClicked struct {
	Action string // e.g., "capture", "record", "stop", "folder", "exit"
}

func (m TrayMenuClicked) Type() string { return TypeTrayMenuClicked }

// Shutdown - broadcast to all processes on exit
type Shutdown struct{}

func (m Shutdown) Type() string { return TypeShutdown }

// MessageEnvelope wraps messages with metadata for routing
type MessageEnvelope struct {
	From    string  // Source process name
	To      string  // Destination process name ("*" for broadcast)
	Message Message // The actual message
}

// ProcessNames - constants for process identification
const (
	ProcessMain      = "main"
	ProcessCore      = "core"
	ProcessHotkey    = "hotkey"
	ProcessClipboard = "clipboard"
	ProcessTray      = "tray"
)
