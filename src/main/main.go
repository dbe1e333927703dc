package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"screencap/src/clipboard"
	"screencap/src/config"
	"screencap/src/eventloop"
	"screencap/src/hotkey"
	"screencap/src/logutil"
	"screencap/src/messages"
	"screencap/src/notification"
	"screencap/src/router"
	"screencap/src/selection"
	"screencap/src/tray"
)

func main() {
	verbose := flag.Bool("verbose", false, "log router traffic")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logutil.Setup(cfg.EnableFileLogging)

	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create capture directories: %v", err)
	}

	clipboardReady := true
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable, path copying disabled: %v", err)
		clipboardReady = false
	}

	log.Printf("screencap initialized")
	log.Printf("Save root: %s", cfg.SaveRoot)
	log.Printf("Hotkeys: screenshot=%s record=%s stop=%s", cfg.HotkeyScreenshot, cfg.HotkeyRecord, cfg.HotkeyStop)

	rt := router.NewRouter()
	rt.SetMessageLogging(*verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := eventloop.New(cfg, rt)
	go func() {
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("event loop stopped: %v", err)
		}
	}()

	shellCh, err := rt.RegisterProcess(messages.ProcessMain, 16)
	if err != nil {
		log.Fatalf("Failed to register shell process: %v", err)
	}
	go runShell(shellCh, clipboardReady && cfg.CopyToClipboard)

	hotkey.Listen(cfg.HotkeyScreenshot, func() {
		_ = rt.SendToCore(messages.ProcessHotkey, messages.StartRegionSelection{Target: messages.TargetScreenshot})
	})
	hotkey.Listen(cfg.HotkeyRecord, func() {
		_ = rt.SendToCore(messages.ProcessHotkey, messages.StartRegionSelection{Target: messages.TargetRecording})
	})
	hotkey.Listen(cfg.HotkeyStop, func() {
		_ = rt.SendToCore(messages.ProcessHotkey, messages.StopRecording{})
	})

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			_ = rt.SendToCore(messages.ProcessMain, messages.Shutdown{})
			cancel()
			tray.Quit()
			selection.StopHost()
		})
	}

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		shutdown()
	}()

	go tray.Run(tray.Callbacks{
		OnCapture: func() {
			_ = rt.SendToCore(messages.ProcessTray, messages.StartRegionSelection{Target: messages.TargetScreenshot})
		},
		OnRecord: func() {
			_ = rt.SendToCore(messages.ProcessTray, messages.StartRegionSelection{Target: messages.TargetRecording})
		},
		OnStop: func() {
			_ = rt.SendToCore(messages.ProcessTray, messages.StopRecording{})
		},
		OnOpenFolder: func() {
			if err := exec.Command("xdg-open", cfg.SaveRoot).Start(); err != nil {
				log.Printf("Failed to open save folder: %v", err)
			}
		},
		OnQuit: shutdown,
	})

	// The overlay picker's UI loop must own the main goroutine; blocks
	// until shutdown.
	selection.StartHost()

	rt.Shutdown()
	log.Printf("screencap exiting")
}

// runShell consumes core broadcasts and surfaces them to the desktop.
func runShell(ch <-chan messages.MessageEnvelope, copyPaths bool) {
	for env := range ch {
		switch m := env.Message.(type) {
		case messages.ScreenshotComplete:
			if m.Error != nil {
				notification.ShowError(m.Error.Error())
				continue
			}
			notification.ShowCaptureResult("Screenshot", m.Path)
			if copyPaths {
				_ = clipboard.Write(m.Path)
			}
		case messages.RegionCancelled:
			log.Printf("Shell: selection cancelled (%s)", m.Target)
		case messages.RecordingStarted:
			tray.SetRecording(true)
			notification.Show("Recording started", m.OutputPath)
		case messages.RecordingStopping:
			notification.Show("Recording", "finishing up...")
		case messages.RecordingFinished:
			tray.SetRecording(false)
			notification.ShowCaptureResult("Recording", m.OutputPath)
			if copyPaths {
				_ = clipboard.Write(m.OutputPath)
			}
		case messages.RecordingFailed:
			tray.SetRecording(false)
			notification.ShowError(fmt.Sprintf("Recording failed: %s", m.Message))
		}
	}
}
