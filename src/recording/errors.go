package recording

import "fmt"

// ToolMissingError reports an absent external binary. Not retryable; the
// hint is shown to the user as-is.
type ToolMissingError struct {
	Tool string
	Hint string
}

func (e *ToolMissingError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s not found", e.Tool)
	}
	return fmt.Sprintf("%s not found. %s", e.Tool, e.Hint)
}

// ValidationError reports a config that cannot produce a working encoder
// command. Raised before any process is spawned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid recording config: " + e.Reason
}

// ProcessFailureError reports an encoder that exited non-zero without
// producing its output file.
type ProcessFailureError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessFailureError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("recording failed (exit %d)", e.ExitCode)
	}
	return fmt.Sprintf("recording failed (exit %d): %s", e.ExitCode, e.Stderr)
}
