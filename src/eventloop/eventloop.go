package eventloop

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"screencap/src/audiosource"
	"screencap/src/config"
	"screencap/src/messages"
	"screencap/src/recording"
	"screencap/src/router"
	"screencap/src/screenshot"
	"screencap/src/selection"
	"screencap/src/worker"
)

const webcamDevice = "/dev/video0"

// regionSelector picks a rectangle interactively.
type regionSelector interface {
	Select(ctx context.Context) selection.Result
}

// audioResolver probes the host for a capture source.
type audioResolver interface {
	Resolve(ctx context.Context) audiosource.Source
}

// encoderSession is the running-recording surface the loop drives.
type encoderSession interface {
	Start(plan recording.Plan) error
	Stop()
	Events() <-chan recording.Event
}

// Loop is the single-threaded coordinator. All state lives here and is only
// touched from Run's goroutine; blocking work happens on side goroutines that
// post results back through channels.
type Loop struct {
	cfg      *config.Config
	rt       *router.Router
	selector regionSelector
	resolver audioResolver
	pool     *worker.Pool

	// Swappable for tests.
	environment func() (recording.Environment, error)
	newSession  func() encoderSession

	selecting bool
	regions   map[string]screenshot.Region
	active    encoderSession

	selResults  chan selOutcome
	shotResults chan shotOutcome
	recEvents   chan recording.Event
	recStartErr chan error
}

type selOutcome struct {
	target string
	res    selection.Result
}

type shotOutcome struct {
	path string
	err  error
}

// New creates the coordinator. The router is where inbound messages arrive
// and where state-change events are broadcast.
func New(cfg *config.Config, rt *router.Router) *Loop {
	return &Loop{
		cfg:         cfg,
		rt:          rt,
		selector:    selection.NewSelector(),
		resolver:    audiosource.NewResolver(),
		pool:        worker.New(0),
		environment: hostEnvironment,
		newSession:  func() encoderSession { return recording.NewManager() },
		regions:     make(map[string]screenshot.Region),
		selResults:  make(chan selOutcome, 1),
		shotResults: make(chan shotOutcome, 4),
		recEvents:   make(chan recording.Event, 8),
		recStartErr: make(chan error, 1),
	}
}

// Run processes messages until ctx is cancelled or Shutdown arrives.
func (l *Loop) Run(ctx context.Context) error {
	inbox, err := l.rt.RegisterProcess(messages.ProcessCore, 16)
	if err != nil {
		return err
	}
	defer l.rt.UnregisterProcess(messages.ProcessCore)
	defer l.pool.Close()

	for {
		select {
		case <-ctx.Done():
			l.stopActive()
			return ctx.Err()
		case env, ok := <-inbox:
			if !ok {
				return nil
			}
			if done := l.handleMessage(ctx, env.Message); done {
				l.stopActive()
				return nil
			}
		case out := <-l.selResults:
			l.handleSelection(ctx, out)
		case out := <-l.shotResults:
			l.handleShot(out)
		case err := <-l.recStartErr:
			l.active = nil
			l.broadcast(messages.RecordingFailed{Message: err.Error()})
		case ev := <-l.recEvents:
			l.handleRecordingEvent(ev)
		}
	}
}

func (l *Loop) handleMessage(ctx context.Context, msg messages.Message) bool {
	switch m := msg.(type) {
	case messages.StartRegionSelection:
		l.startSelection(ctx, m.Target)
	case messages.CaptureScreenshot:
		l.startScreenshot(ctx, m)
	case messages.StartRecording:
		l.startRecording(ctx, m.Config)
	case messages.StopRecording:
		if l.active != nil {
			go l.active.Stop()
		} else {
			log.Printf("Eventloop: stop requested with no active recording")
		}
	case messages.Shutdown:
		return true
	default:
		log.Printf("Eventloop: ignoring message %s", msg.Type())
	}
	return false
}

func (l *Loop) startSelection(ctx context.Context, target string) {
	if l.selecting {
		log.Printf("Eventloop: selection already in progress, ignoring")
		return
	}
	l.selecting = true
	sel := l.selector
	go func() {
		res := sel.Select(ctx)
		l.selResults <- selOutcome{target: target, res: res}
	}()
}

func (l *Loop) handleSelection(ctx context.Context, out selOutcome) {
	l.selecting = false
	if out.res.Cancelled {
		l.broadcast(messages.RegionCancelled{Target: out.target})
		return
	}

	region := out.res.Region
	l.regions[out.target] = region
	l.broadcast(messages.RegionSelected{Region: region, Target: out.target})

	switch out.target {
	case messages.TargetScreenshot:
		if out.res.SavedImage != "" {
			// The picker already wrote the pixels; keep its file instead of
			// grabbing again from a region whose offset it could not report.
			path, err := l.adoptSavedImage(out.res.SavedImage)
			l.shotResults <- shotOutcome{path: path, err: err}
			return
		}
		l.startScreenshot(ctx, messages.CaptureScreenshot{
			Mode:   screenshot.ModeArea,
			Region: region,
			Delay:  l.cfg.ScreenshotDelay,
		})
	case messages.TargetRecording:
		cfg := l.recordingDefaults()
		cfg.Region = region
		l.startRecording(ctx, cfg)
	}
}

func (l *Loop) startScreenshot(ctx context.Context, m messages.CaptureScreenshot) {
	req := screenshot.Request{
		Mode:    m.Mode,
		Region:  m.Region,
		Delay:   time.Duration(m.Delay) * time.Second,
		Output:  l.screenshotPath(),
		Quality: l.cfg.ScreenshotQual,
	}
	submitted := l.pool.Submit(ctx, req, func(path string, err error) {
		l.shotResults <- shotOutcome{path: path, err: err}
	})
	if !submitted {
		log.Printf("Eventloop: grab dropped, worker busy")
	}
}

func (l *Loop) handleShot(out shotOutcome) {
	if out.err != nil {
		log.Printf("Eventloop: grab failed: %v", out.err)
	}
	l.broadcast(messages.ScreenshotComplete{Path: out.path, Error: out.err})
}

func (l *Loop) startRecording(ctx context.Context, cfg recording.Config) {
	if l.active != nil {
		log.Printf("Eventloop: recording already active, ignoring start")
		return
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = l.recordingPath()
	}

	session := l.newSession()
	l.active = session

	resolver := l.resolver
	environment := l.environment
	go func() {
		env, err := environment()
		if err != nil {
			l.recStartErr <- err
			return
		}

		var src *audiosource.Source
		if cfg.Audio {
			// Probed fresh per session; devices come and go.
			s := resolver.Resolve(ctx)
			src = &s
		}

		plan, err := recording.Build(cfg, src, env)
		if err != nil {
			l.recStartErr <- err
			return
		}
		if err := session.Start(plan); err != nil {
			l.recStartErr <- err
			return
		}
		for ev := range session.Events() {
			l.recEvents <- ev
		}
	}()
}

func (l *Loop) handleRecordingEvent(ev recording.Event) {
	switch ev.State {
	case recording.StateRecording:
		l.broadcast(messages.RecordingStarted{OutputPath: ev.OutputPath})
	case recording.StateStopping:
		l.broadcast(messages.RecordingStopping{})
	case recording.StateFinished:
		l.active = nil
		l.broadcast(messages.RecordingFinished{OutputPath: ev.OutputPath})
	case recording.StateFailed:
		l.active = nil
		msg := "recording failed"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		l.broadcast(messages.RecordingFailed{Message: msg})
	}
}

func (l *Loop) stopActive() {
	if l.active != nil {
		l.active.Stop()
		l.active = nil
	}
}

func (l *Loop) recordingDefaults() recording.Config {
	return recording.Config{
		FPS:        l.cfg.FPS,
		Quality:    l.cfg.Quality,
		Audio:      l.cfg.Audio,
		Webcam:     l.cfg.Webcam,
		WebcamPos:  recording.WebcamPosition(l.cfg.WebcamPos),
		WebcamSize: recording.WebcamSize(l.cfg.WebcamSize),
	}
}

func (l *Loop) screenshotPath() string {
	name := fmt.Sprintf("shot_%s.%s", time.Now().Format("20060102_150405"), l.cfg.ScreenshotFormat)
	return filepath.Join(l.cfg.ScreenshotDir, name)
}

func (l *Loop) recordingPath() string {
	// Extensionless; the command builder appends .mp4 or .mkv per tier.
	name := fmt.Sprintf("rec_%s", time.Now().Format("20060102_150405"))
	return filepath.Join(l.cfg.RecordingDir, name)
}

// renameFile is swapped out by tests to exercise the cross-device path.
var renameFile = os.Rename

// adoptSavedImage moves a picker's temp file into the screenshot directory.
// The temp file lives under os.TempDir(), often a tmpfs, so a plain rename
// can fail with EXDEV; fall back to copy and remove.
func (l *Loop) adoptSavedImage(tmp string) (string, error) {
	dst := filepath.Join(l.cfg.ScreenshotDir, fmt.Sprintf("shot_%s.png", time.Now().Format("20060102_150405")))
	if err := renameFile(tmp, dst); err != nil {
		if copyErr := copyFile(tmp, dst); copyErr != nil {
			return "", copyErr
		}
		_ = os.Remove(tmp)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (l *Loop) broadcast(msg messages.Message) {
	l.rt.Broadcast(messages.MessageEnvelope{
		From:    messages.ProcessCore,
		To:      "*",
		Message: msg,
	})
}

// hostEnvironment inspects the live desktop for the command builder.
func hostEnvironment() (recording.Environment, error) {
	bounds, err := screenshot.DisplayBounds()
	if err != nil {
		return recording.Environment{}, fmt.Errorf("probe display: %w", err)
	}
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return recording.Environment{}, fmt.Errorf("no usable display")
	}

	env := recording.Environment{
		ScreenWidth:  bounds.Dx(),
		ScreenHeight: bounds.Dy(),
		Display:      os.Getenv("DISPLAY"),
	}
	if _, err := os.Stat(webcamDevice); err == nil {
		env.WebcamDevice = webcamDevice
	}
	return env, nil
}
