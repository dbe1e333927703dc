package eventloop

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screencap/src/audiosource"
	"screencap/src/config"
	"screencap/src/messages"
	"screencap/src/recording"
	"screencap/src/router"
	"screencap/src/screenshot"
	"screencap/src/selection"
)

type fakeSelector struct {
	res selection.Result
}

func (f *fakeSelector) Select(ctx context.Context) selection.Result { return f.res }

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context) audiosource.Source {
	return audiosource.Source{Driver: audiosource.DriverPulse, Name: "default"}
}

type fakeSession struct {
	mu      sync.Mutex
	started []recording.Plan
	stopped bool
	events  chan recording.Event
}

func newFakeSession() *fakeSession {
	return &fakeSession{events: make(chan recording.Event, 8)}
}

func (f *fakeSession) Start(plan recording.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, plan)
	f.events <- recording.Event{State: recording.StateRecording, OutputPath: plan.OutputPath}
	return nil
}

func (f *fakeSession) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.stopped = true
	f.events <- recording.Event{State: recording.StateFinished, OutputPath: "done.mp4"}
	close(f.events)
}

func (f *fakeSession) Events() <-chan recording.Event { return f.events }

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		SaveRoot:         dir,
		ScreenshotDir:    dir,
		RecordingDir:     dir,
		ScreenshotFormat: "png",
		FPS:              30,
		Quality:          2,
		Audio:            true,
		WebcamPos:        "bottom-right",
		WebcamSize:       "medium",
	}
}

func testEnvironment() (recording.Environment, error) {
	return recording.Environment{ScreenWidth: 1920, ScreenHeight: 1080, Display: ":0"}, nil
}

// startLoop wires a loop with fakes and a shell-side listener channel.
func startLoop(t *testing.T, sel regionSelector, session *fakeSession) (*router.Router, <-chan messages.MessageEnvelope, context.CancelFunc) {
	t.Helper()

	rt := router.NewRouter()
	rt.SetMessageLogging(false)
	shell, err := rt.RegisterProcess("shell", 16)
	require.NoError(t, err)

	l := New(testConfig(t), rt)
	l.selector = sel
	l.resolver = fakeResolver{}
	l.environment = testEnvironment
	l.newSession = func() encoderSession { return session }

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		rt.Shutdown()
	})
	return rt, shell, cancel
}

func waitFor(t *testing.T, ch <-chan messages.MessageEnvelope, msgType string) messages.Message {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case env := <-ch:
			if env.Message.Type() == msgType {
				return env.Message
			}
		case <-deadline:
			t.Fatalf("never received %s", msgType)
		}
	}
}

func TestSelectionDrivesRecording(t *testing.T) {
	sel := &fakeSelector{res: selection.Result{Region: screenshot.Region{X: 10, Y: 20, Width: 640, Height: 480}}}
	session := newFakeSession()
	rt, shell, _ := startLoop(t, sel, session)

	require.NoError(t, rt.SendToCore("shell", messages.StartRegionSelection{Target: messages.TargetRecording}))

	selected := waitFor(t, shell, messages.TypeRegionSelected).(messages.RegionSelected)
	assert.Equal(t, 640, selected.Region.Width)

	started := waitFor(t, shell, messages.TypeRecordingStarted).(messages.RecordingStarted)
	assert.NotEmpty(t, started.OutputPath)

	session.mu.Lock()
	require.Len(t, session.started, 1)
	assert.Contains(t, session.started[0].Args, "x11grab")
	session.mu.Unlock()

	require.NoError(t, rt.SendToCore("shell", messages.StopRecording{}))
	finished := waitFor(t, shell, messages.TypeRecordingFinished).(messages.RecordingFinished)
	assert.Equal(t, "done.mp4", finished.OutputPath)
}

func TestCancelledSelectionBroadcasts(t *testing.T) {
	sel := &fakeSelector{res: selection.Result{Cancelled: true}}
	session := newFakeSession()
	rt, shell, _ := startLoop(t, sel, session)

	require.NoError(t, rt.SendToCore("shell", messages.StartRegionSelection{Target: messages.TargetRecording}))

	cancelled := waitFor(t, shell, messages.TypeRegionCancelled).(messages.RegionCancelled)
	assert.Equal(t, messages.TargetRecording, cancelled.Target)

	session.mu.Lock()
	assert.Empty(t, session.started, "cancelled selection must not spawn an encoder")
	session.mu.Unlock()
}

func TestSecondRecordingIgnoredWhileActive(t *testing.T) {
	sel := &fakeSelector{}
	session := newFakeSession()
	rt, shell, _ := startLoop(t, sel, session)

	cfg := recording.Config{FPS: 30, Quality: 2}
	require.NoError(t, rt.SendToCore("shell", messages.StartRecording{Config: cfg}))
	waitFor(t, shell, messages.TypeRecordingStarted)

	require.NoError(t, rt.SendToCore("shell", messages.StartRecording{Config: cfg}))
	// Give the loop a moment to (wrongly) start another session.
	time.Sleep(100 * time.Millisecond)

	session.mu.Lock()
	assert.Len(t, session.started, 1)
	session.mu.Unlock()
}

func TestAdoptSavedImageCopiesAcrossFilesystems(t *testing.T) {
	orig := renameFile
	renameFile = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFile = orig }()

	rt := router.NewRouter()
	rt.SetMessageLogging(false)
	defer rt.Shutdown()
	l := New(testConfig(t), rt)

	src := filepath.Join(t.TempDir(), "sel.png")
	require.NoError(t, os.WriteFile(src, []byte("pixels"), 0o644))

	dst, err := l.adoptSavedImage(src)
	require.NoError(t, err, "a tmpfs temp dir must not break picker adoption")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be removed after the copy")
}

func TestInvalidConfigFailsWithoutSpawning(t *testing.T) {
	sel := &fakeSelector{}
	session := newFakeSession()
	rt, shell, _ := startLoop(t, sel, session)

	bad := recording.Config{FPS: 30, Quality: 2, Region: screenshot.Region{Width: 1, Height: 1}}
	require.NoError(t, rt.SendToCore("shell", messages.StartRecording{Config: bad}))

	failed := waitFor(t, shell, messages.TypeRecordingFailed).(messages.RecordingFailed)
	assert.NotEmpty(t, failed.Message)

	session.mu.Lock()
	assert.Empty(t, session.started)
	session.mu.Unlock()
}
