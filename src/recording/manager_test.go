package recording

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript installs a shell script that stands in for the encoder binary.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encoder.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// waitEvent pulls events until one with the wanted state arrives.
func waitEvent(t *testing.T, m *Manager, want State) Event {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-m.Events():
			if !ok {
				t.Fatalf("events channel closed before state %s", want)
			}
			if ev.State == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

// drainTerminal counts terminal events until the channel closes.
func drainTerminal(m *Manager) int {
	n := 0
	for {
		select {
		case ev, ok := <-m.Events():
			if !ok {
				return n
			}
			if ev.State == StateFinished || ev.State == StateFailed {
				n++
			}
		case <-time.After(2 * time.Second):
			return n
		}
	}
}

func TestStartMissingBinary(t *testing.T) {
	m := NewManager()
	m.binary = "screencap-no-such-encoder"

	err := m.Start(Plan{OutputPath: "/tmp/never.mp4"})
	require.Error(t, err)

	var missing *ToolMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "screencap-no-such-encoder", missing.Tool)

	ev := waitEvent(t, m, StateFailed)
	assert.ErrorAs(t, ev.Err, &missing)
	assert.Equal(t, StateFailed, m.State())
}

func TestGracefulStopSucceedsDespiteNonZeroExit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rec.mp4")
	// Waits for the quit command, writes its output, then exits non-zero
	// the way ffmpeg sometimes does after a valid trailer.
	script := writeScript(t, `read line
touch "$1"
exit 1`)

	m := NewManager()
	m.binary = script
	require.NoError(t, m.Start(Plan{Args: []string{out}, OutputPath: out}))
	started := waitEvent(t, m, StateRecording)
	assert.Equal(t, out, started.OutputPath, "start event must name the file being written")

	m.Stop()

	ev := waitEvent(t, m, StateFinished)
	assert.Equal(t, out, ev.OutputPath)
	assert.FileExists(t, out)
	assert.Equal(t, StateFinished, m.State())
}

func TestStopIsIdempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rec.mp4")
	script := writeScript(t, `read line
exit 0`)

	m := NewManager()
	m.binary = script
	require.NoError(t, m.Start(Plan{OutputPath: out}))
	waitEvent(t, m, StateRecording)

	m.Stop()
	m.Stop()
	m.Stop()

	assert.Equal(t, 1, drainTerminal(m), "exactly one terminal transition")
	assert.Equal(t, StateFinished, m.State())
}

func TestStopEscalatesToForcedKill(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rec.mp4")
	// Ignores both the quit command and SIGTERM.
	script := writeScript(t, `trap '' TERM
while :; do sleep 0.05; done`)

	m := NewManager()
	m.binary = script
	m.graceWait = 150 * time.Millisecond
	m.killWait = 150 * time.Millisecond
	require.NoError(t, m.Start(Plan{OutputPath: out}))
	waitEvent(t, m, StateRecording)

	start := time.Now()
	m.Stop()
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 5*time.Second, "forced kill must terminate within a bounded delay")
	// User-initiated stop counts as success even though the child was killed.
	assert.Equal(t, StateFinished, m.State())
}

func TestCrashReportsExitCodeAndStderrTail(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rec.mp4")
	script := writeScript(t, `echo "boom: bad input" >&2
exit 3`)

	m := NewManager()
	m.binary = script
	require.NoError(t, m.Start(Plan{OutputPath: out}))

	ev := waitEvent(t, m, StateFailed)
	var failure *ProcessFailureError
	require.ErrorAs(t, ev.Err, &failure)
	assert.Equal(t, 3, failure.ExitCode)
	assert.Contains(t, failure.Stderr, "boom: bad input")
}

func TestStartTwiceIsRejected(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rec.mp4")
	script := writeScript(t, `read line
exit 0`)

	m := NewManager()
	m.binary = script
	require.NoError(t, m.Start(Plan{OutputPath: out}))
	require.Error(t, m.Start(Plan{OutputPath: out}))

	m.Stop()
	waitEvent(t, m, StateFinished)
}

func TestStopBeforeStartIsNoOp(t *testing.T) {
	m := NewManager()
	m.Stop()
	assert.Equal(t, StateIdle, m.State())
}

func TestEventsChannelClosesAfterTerminalEvent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rec.mp4")
	script := writeScript(t, `read line
touch "$1"
exit 0`)

	m := NewManager()
	m.binary = script
	require.NoError(t, m.Start(Plan{Args: []string{out}, OutputPath: out}))
	waitEvent(t, m, StateRecording)
	m.Stop()

	// A consumer ranging over Events() must be released once the session
	// reaches its terminal state.
	consumed := make(chan State, 1)
	go func() {
		var last State
		for ev := range m.Events() {
			last = ev.State
		}
		consumed <- last
	}()

	select {
	case last := <-consumed:
		assert.Equal(t, StateFinished, last)
	case <-time.After(5 * time.Second):
		t.Fatal("events channel never closed, consumer still blocked")
	}
}

func TestEventsChannelClosesOnSpawnFailure(t *testing.T) {
	m := NewManager()
	m.binary = "screencap-no-such-encoder"
	require.Error(t, m.Start(Plan{OutputPath: "/tmp/never.mp4"}))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-m.Events():
			if !ok {
				return
			}
			assert.Equal(t, StateFailed, ev.State)
		case <-deadline:
			t.Fatal("events channel never closed after spawn failure")
		}
	}
}
