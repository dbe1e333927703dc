package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screencap/src/audiosource"
	"screencap/src/config"
	"screencap/src/recording"
	"screencap/src/screenshot"
	"screencap/src/selection"
)

type shotOptions struct {
	area    string
	window  bool
	pick    bool
	delay   int
	output  string
	verbose bool
}

type recordOptions struct {
	area     string
	pick     bool
	duration time.Duration
	fps      int
	quality  int
	noAudio  bool
	webcam   bool
	output   string
	verbose  bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:           "screencap-cli",
		Short:         "Headless screenshots and screen recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newShotCmd(), newRecordCmd())
	return root.Execute()
}

func newShotCmd() *cobra.Command {
	opts := &shotOptions{}
	cmd := &cobra.Command{
		Use:   "shot",
		Short: "Capture a still image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShot(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.area, "area", "", "Region as WxH+X+Y (default: full screen)")
	cmd.Flags().BoolVar(&opts.window, "window", false, "Capture the active window")
	cmd.Flags().BoolVar(&opts.pick, "select", false, "Pick the region interactively")
	cmd.Flags().IntVar(&opts.delay, "delay", 0, "Seconds to wait before the grab")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "Output file (extension selects the format)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	return cmd
}

func newRecordCmd() *cobra.Command {
	opts := &recordOptions{}
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the screen until Ctrl-C or --duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.area, "area", "", "Region as WxH+X+Y (default: full screen)")
	cmd.Flags().BoolVar(&opts.pick, "select", false, "Pick the region interactively")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop automatically after this long")
	cmd.Flags().IntVar(&opts.fps, "fps", 30, "Capture frame rate")
	cmd.Flags().IntVar(&opts.quality, "quality", 2, "Encoder tier 0 (smallest) to 4 (lossless)")
	cmd.Flags().BoolVar(&opts.noAudio, "no-audio", false, "Skip audio capture")
	cmd.Flags().BoolVar(&opts.webcam, "webcam", false, "Overlay the webcam")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "Output file (extension is chosen by quality)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	return cmd
}

func setupLogging(verbose bool) {
	if verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}

func runShot(opts shotOptions) error {
	setupLogging(opts.verbose)
	ctx := context.Background()

	req := screenshot.Request{
		Mode:    screenshot.ModeFull,
		Delay:   time.Duration(opts.delay) * time.Second,
		Output:  opts.output,
		Quality: 90,
	}
	switch {
	case opts.window:
		req.Mode = screenshot.ModeWindow
	case opts.pick:
		region, err := pickRegion(ctx)
		if err != nil {
			return err
		}
		req.Mode = screenshot.ModeArea
		req.Region = region
	case opts.area != "":
		region, err := parseRegion(opts.area)
		if err != nil {
			return err
		}
		req.Mode = screenshot.ModeArea
		req.Region = region
	}

	if req.Output == "" {
		cfg, _ := config.Load()
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}
		name := fmt.Sprintf("shot_%s.%s", time.Now().Format("20060102_150405"), cfg.ScreenshotFormat)
		req.Output = cfg.ScreenshotDir + "/" + name
		req.Quality = cfg.ScreenshotQual
	}

	path, err := req.Take(ctx)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runRecord(opts recordOptions) error {
	setupLogging(opts.verbose)
	ctx := context.Background()

	recCfg := recording.Config{
		FPS:        opts.fps,
		Quality:    opts.quality,
		Audio:      !opts.noAudio,
		Webcam:     opts.webcam,
		WebcamPos:  recording.WebcamBottomRight,
		WebcamSize: recording.WebcamMedium,
		OutputPath: opts.output,
	}

	switch {
	case opts.pick:
		region, err := pickRegion(ctx)
		if err != nil {
			return err
		}
		recCfg.Region = region
	case opts.area != "":
		region, err := parseRegion(opts.area)
		if err != nil {
			return err
		}
		recCfg.Region = region
	}

	if recCfg.OutputPath == "" {
		cfg, _ := config.Load()
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}
		recCfg.OutputPath = cfg.RecordingDir + "/" + fmt.Sprintf("rec_%s", time.Now().Format("20060102_150405"))
	}

	env, err := probeEnvironment()
	if err != nil {
		return err
	}

	var src *audiosource.Source
	if recCfg.Audio {
		s := audiosource.NewResolver().Resolve(ctx)
		src = &s
	}

	plan, err := recording.Build(recCfg, src, env)
	if err != nil {
		return err
	}

	mgr := recording.NewManager()
	if err := mgr.Start(plan); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Recording to %s (Ctrl-C to stop)\n", plan.OutputPath)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var timer <-chan time.Time
	if opts.duration > 0 {
		timer = time.After(opts.duration)
	}

	for ev := range mgr.Events() {
		switch ev.State {
		case recording.StateRecording:
			go func() {
				select {
				case <-stop:
				case <-timer:
				}
				mgr.Stop()
			}()
		case recording.StateFinished:
			fmt.Println(ev.OutputPath)
			return nil
		case recording.StateFailed:
			return ev.Err
		}
	}
	return fmt.Errorf("recorder exited without a result")
}

// pickRegion runs an interactive selection. The overlay fallback needs a UI
// loop on the main goroutine, so selection itself runs on a side goroutine
// while this goroutine hosts the overlay until the session resolves.
func pickRegion(ctx context.Context) (screenshot.Region, error) {
	results := make(chan selection.Result, 1)
	go func() {
		results <- selection.NewSelector().Select(ctx)
		selection.StopHost()
	}()
	selection.StartHost()

	res := <-results
	if res.Cancelled {
		return screenshot.Region{}, fmt.Errorf("selection cancelled")
	}
	return res.Region, nil
}

func probeEnvironment() (recording.Environment, error) {
	bounds, err := screenshot.DisplayBounds()
	if err != nil {
		return recording.Environment{}, fmt.Errorf("probe display: %w", err)
	}
	env := recording.Environment{
		ScreenWidth:  bounds.Dx(),
		ScreenHeight: bounds.Dy(),
		Display:      os.Getenv("DISPLAY"),
	}
	if _, err := os.Stat("/dev/video0"); err == nil {
		env.WebcamDevice = "/dev/video0"
	}
	return env, nil
}

// parseRegion accepts the WxH+X+Y form that Region.String produces.
func parseRegion(s string) (screenshot.Region, error) {
	var r screenshot.Region
	if _, err := fmt.Sscanf(s, "%dx%d+%d+%d", &r.Width, &r.Height, &r.X, &r.Y); err != nil {
		return screenshot.Region{}, fmt.Errorf("invalid region %q, want WxH+X+Y", s)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return screenshot.Region{}, fmt.Errorf("invalid region %q, want positive size", s)
	}
	return r, nil
}
