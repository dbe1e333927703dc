package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Callbacks are invoked from the systray goroutine when menu items are
// clicked. All fields are optional.
type Callbacks struct {
	OnCapture    func()
	OnRecord     func()
	OnStop       func()
	OnOpenFolder func()
	OnQuit       func()
}

var (
	mu        sync.Mutex
	mRecord   *systray.MenuItem
	mStop     *systray.MenuItem
	recording bool
)

// Run starts the systray loop. Blocks until Quit is chosen, so call it from
// the main goroutine.
func Run(cb Callbacks) {
	systray.Run(func() { onReady(cb) }, onExit)
}

// Quit asks the systray loop to exit.
func Quit() {
	systray.Quit()
}

// SetRecording flips the menu between the idle and recording states.
func SetRecording(active bool) {
	mu.Lock()
	defer mu.Unlock()
	if mRecord == nil || mStop == nil {
		return
	}
	recording = active
	if active {
		systray.SetTooltip("screencap - recording")
		mRecord.Disable()
		mStop.Enable()
	} else {
		systray.SetTooltip("screencap")
		mRecord.Enable()
		mStop.Disable()
	}
}

func onReady(cb Callbacks) {
	systray.SetIcon(iconBytes())
	systray.SetTitle("screencap")
	systray.SetTooltip("screencap")

	mCapture := systray.AddMenuItem("Capture Region", "Select a region and save a screenshot")
	record := systray.AddMenuItem("Start Recording", "Record the screen")
	stop := systray.AddMenuItem("Stop Recording", "Finish the active recording")
	systray.AddSeparator()
	mFolder := systray.AddMenuItem("Open Save Folder", "Open the capture directory")
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	stop.Disable()

	mu.Lock()
	mRecord = record
	mStop = stop
	mu.Unlock()

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				invoke(cb.OnCapture, "capture")
			case <-record.ClickedCh:
				invoke(cb.OnRecord, "record")
			case <-stop.ClickedCh:
				invoke(cb.OnStop, "stop")
			case <-mFolder.ClickedCh:
				invoke(cb.OnOpenFolder, "folder")
			case <-mQuit.ClickedCh:
				invoke(cb.OnQuit, "quit")
				systray.Quit()
				return
			}
		}
	}()
}

func onExit() {
	mu.Lock()
	mRecord = nil
	mStop = nil
	mu.Unlock()
}

func invoke(f func(), action string) {
	log.Printf("Tray: menu action %s", action)
	if f != nil {
		f()
	}
}

// iconBytes renders the tray icon: a red recording dot inside a frame.
func iconBytes() []byte {
	const size = 16
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	frame := color.NRGBA{R: 200, G: 200, B: 210, A: 255}
	dot := color.NRGBA{R: 233, G: 69, B: 96, A: 255}

	for i := 0; i < size; i++ {
		img.SetNRGBA(i, 0, frame)
		img.SetNRGBA(i, size-1, frame)
		img.SetNRGBA(0, i, frame)
		img.SetNRGBA(size-1, i, frame)
	}
	const cx, cy, r = 7.5, 7.5, 4.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, dot)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
