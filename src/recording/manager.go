package recording

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// State is the lifecycle position of a Manager. Managers are one-shot: a
// terminal state requires a fresh Manager for the next session.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports a state transition. OutputPath is set on StateRecording and
// StateFinished, Err on StateFailed.
type Event struct {
	State      State
	OutputPath string
	Err        error
}

const (
	stderrTailBytes  = 4 * 1024
	defaultGraceWait = 5 * time.Second
	defaultKillWait  = 2 * time.Second
)

// Manager owns exactly one encoder child process. All UI-visible state flows
// outward through the events channel; the manager never reaches back into
// caller state.
type Manager struct {
	binary    string
	graceWait time.Duration
	killWait  time.Duration

	mu         sync.Mutex
	state      State
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     *tailBuffer
	outputPath string

	cancelled atomic.Bool
	done      chan struct{} // closed when the wait goroutine finishes
	events    chan Event
}

func NewManager() *Manager {
	return &Manager{
		binary:    "ffmpeg",
		graceWait: defaultGraceWait,
		killWait:  defaultKillWait,
		stderr:    newTailBuffer(stderrTailBytes),
		done:      make(chan struct{}),
		events:    make(chan Event, 8),
	}
}

// Events delivers state transitions. The channel is buffered, the manager
// never blocks on a slow consumer, and it is closed after the terminal
// event so consumers can range over it.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start spawns the encoder. Standard input stays open for the graceful quit
// command, stdout is discarded, stderr is kept as a bounded diagnostic tail.
// Start must be called at most once per Manager.
func (m *Manager) Start(plan Plan) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return fmt.Errorf("recording manager already started (state %s)", m.state)
	}
	m.state = StateStarting
	m.outputPath = plan.OutputPath

	cmd := exec.Command(m.binary, plan.Args...)
	cmd.Stderr = m.stderr
	// Own process group so forced termination reaches encoder children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		m.state = StateFailed
		m.mu.Unlock()
		if errors.Is(err, exec.ErrNotFound) {
			err = &ToolMissingError{Tool: m.binary, Hint: "Install it with: sudo apt install ffmpeg"}
		}
		m.emit(Event{State: StateFailed, Err: err})
		close(m.events)
		close(m.done)
		return err
	}

	m.cmd = cmd
	m.stdin = stdin
	m.state = StateRecording
	m.mu.Unlock()

	log.Printf("recording: encoder started, pid %d, output %s", cmd.Process.Pid, plan.OutputPath)
	m.emit(Event{State: StateRecording, OutputPath: plan.OutputPath})
	go m.waitForExit()
	return nil
}

// Stop requests a graceful shutdown and escalates to forced termination if
// the encoder does not exit in time. Idempotent: only the first call acts,
// later calls return immediately.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state != StateRecording {
		m.mu.Unlock()
		return
	}
	// Flag before signalling so exit handling can tell "stopped by user"
	// from "crashed".
	m.cancelled.Store(true)
	m.state = StateStopping
	stdin := m.stdin
	cmd := m.cmd
	m.mu.Unlock()

	m.emit(Event{State: StateStopping})

	if stdin != nil {
		if _, err := io.WriteString(stdin, "q\n"); err != nil {
			log.Printf("recording: quit command write failed: %v", err)
		}
	}

	select {
	case <-m.done:
		return
	case <-time.After(m.graceWait):
	}

	log.Printf("recording: encoder ignored quit command, sending SIGTERM")
	m.signal(cmd, unix.SIGTERM)

	select {
	case <-m.done:
		return
	case <-time.After(m.killWait):
	}

	log.Printf("recording: encoder ignored SIGTERM, sending SIGKILL")
	m.signal(cmd, unix.SIGKILL)
	<-m.done
}

func (m *Manager) signal(cmd *exec.Cmd, sig unix.Signal) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	// Negative pid addresses the whole process group.
	if err := unix.Kill(-cmd.Process.Pid, sig); err != nil {
		log.Printf("recording: signal %v failed: %v", sig, err)
	}
}

// waitForExit runs on a dedicated goroutine so the caller's control flow is
// never blocked on the child.
func (m *Manager) waitForExit() {
	err := m.cmd.Wait()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	m.mu.Lock()
	var ev Event
	// Encoders sometimes exit non-zero after writing a valid trailer; the
	// output file on disk is the authoritative success signal, not the exit
	// code.
	if m.cancelled.Load() || fileExists(m.outputPath) {
		m.state = StateFinished
		ev = Event{State: StateFinished, OutputPath: m.outputPath}
	} else {
		m.state = StateFailed
		ev = Event{State: StateFailed, Err: &ProcessFailureError{ExitCode: exitCode, Stderr: m.stderr.String()}}
	}
	m.mu.Unlock()

	log.Printf("recording: encoder exited (code %d), final state %s", exitCode, ev.State)
	m.emit(ev)
	// Terminal: no further events can follow, so consumers ranging over
	// Events() must be released.
	close(m.events)
	close(m.done)
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		log.Printf("recording: dropping event %s, consumer not keeping up", ev.State)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
