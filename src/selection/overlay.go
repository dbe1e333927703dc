package selection

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screencap/src/screenshot"
)

var (
	dimColor    = color.NRGBA{R: 0, G: 0, B: 0, A: 160}
	accentColor = color.NRGBA{R: 233, G: 69, B: 96, A: 255}
	badgeColor  = color.NRGBA{R: 20, G: 20, B: 26, A: 230}
	handleSize  = float32(8)
)

// Fyne allows one App per process and its event loop must own the main
// goroutine, while selection sessions run on worker goroutines. The host is
// therefore started once from main and every overlay session marshals its
// window work onto the UI thread with fyne.Do.
var (
	hostMu  sync.Mutex
	hostApp fyne.App
	hostWin fyne.Window // lazily created on the UI thread, reused per session
)

// StartHost runs the overlay UI loop. Call it from the main goroutine; it
// blocks until StopHost. Without a running host the overlay picker reports
// itself unavailable and selection ends with the native tools.
func StartHost() {
	hostMu.Lock()
	if hostApp != nil {
		hostMu.Unlock()
		return
	}
	a := app.New()
	hostApp = a
	hostMu.Unlock()
	a.Run()
}

// StopHost shuts the overlay UI loop down and unblocks StartHost.
func StopHost() {
	hostMu.Lock()
	a := hostApp
	hostApp = nil
	hostWin = nil
	hostMu.Unlock()
	if a != nil {
		a.Quit()
	}
}

// waitForHost tolerates selection racing host startup: a session triggered
// right at boot may reach the overlay before main has called StartHost.
func waitForHost(ctx context.Context) fyne.App {
	deadline := time.Now().Add(2 * time.Second)
	for {
		hostMu.Lock()
		a := hostApp
		hostMu.Unlock()
		if a != nil || ctx.Err() != nil || time.Now().After(deadline) {
			return a
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// overlayPicker is the tool-free fallback. It freezes the screen into a
// fullscreen window and lets the user rubber-band a rectangle over it.
type overlayPicker struct {
	capture func(ctx context.Context) (image.Image, error)
}

func newOverlayPicker() *overlayPicker {
	return &overlayPicker{capture: screenshot.CaptureFull}
}

func (p *overlayPicker) name() string { return "overlay" }

func (p *overlayPicker) attempt(ctx context.Context) (Result, bool) {
	if waitForHost(ctx) == nil {
		log.Printf("selection: overlay UI host not running, skipping")
		return Result{}, false
	}

	frozen, err := p.capture(ctx)
	if err != nil {
		log.Printf("selection: overlay cannot freeze screen: %v", err)
		return Result{}, false
	}
	bounds := frozen.Bounds()

	results := make(chan Result, 1)
	var once sync.Once
	var win fyne.Window
	deliver := func(r Result) {
		once.Do(func() {
			results <- r
			fyne.Do(func() {
				if win != nil {
					win.SetFullScreen(false)
					win.Hide()
				}
			})
		})
	}

	fyne.DoAndWait(func() {
		hostMu.Lock()
		a := hostApp
		if a != nil && hostWin == nil {
			hostWin = a.NewWindow("Select Region")
			hostWin.SetPadded(false)
		}
		win = hostWin
		hostMu.Unlock()
		if win == nil {
			return
		}

		sel := newSelectionWidget(frozen, bounds.Dx(), bounds.Dy(), deliver)
		win.SetContent(sel)
		// The window outlives the session; intercept close so a WM close
		// button cancels instead of tearing the host down.
		win.SetCloseIntercept(func() {
			deliver(Result{Cancelled: true})
		})
		win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			switch ev.Name {
			case fyne.KeyEscape:
				deliver(Result{Cancelled: true})
			case fyne.KeyReturn, fyne.KeyEnter:
				sel.confirm()
			}
		})
		win.SetFullScreen(true)
		win.Show()
	})
	if win == nil {
		// Host stopped between the wait and the window setup.
		return Result{}, false
	}

	select {
	case res := <-results:
		return res, true
	case <-ctx.Done():
		deliver(Result{Cancelled: true})
		return <-results, true
	}
}

// selectionWidget renders the frozen screenshot with a dimmed veil and a
// rubber-band rectangle driven by mouse drags. Coordinates arrive in Fyne
// points and are scaled back to screen pixels when the drag is accepted.
type selectionWidget struct {
	widget.BaseWidget

	frozen  image.Image
	screenW int
	screenH int
	deliver func(Result)

	box dragBox
	rnd *selectionRenderer
}

var _ desktop.Mouseable = (*selectionWidget)(nil)
var _ desktop.Hoverable = (*selectionWidget)(nil)
var _ desktop.Cursorable = (*selectionWidget)(nil)

func newSelectionWidget(frozen image.Image, w, h int, deliver func(Result)) *selectionWidget {
	s := &selectionWidget{frozen: frozen, screenW: w, screenH: h, deliver: deliver}
	s.ExtendBaseWidget(s)
	return s
}

func (s *selectionWidget) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (s *selectionWidget) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.box.begin(screenshot.Point{X: int(ev.Position.X), Y: int(ev.Position.Y)})
	s.Refresh()
}

func (s *selectionWidget) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !s.box.active {
		return
	}
	s.box.moveTo(screenshot.Point{X: int(ev.Position.X), Y: int(ev.Position.Y)})
	s.box.end()
	s.confirm()
}

func (s *selectionWidget) MouseIn(*desktop.MouseEvent) {}
func (s *selectionWidget) MouseOut()                   {}

func (s *selectionWidget) MouseMoved(ev *desktop.MouseEvent) {
	if !s.box.active {
		return
	}
	s.box.moveTo(screenshot.Point{X: int(ev.Position.X), Y: int(ev.Position.Y)})
	s.Refresh()
}

// confirm accepts the current box if it spans enough pixels, otherwise the
// session is treated as cancelled. A bare click falls into the latter.
func (s *selectionWidget) confirm() {
	if !s.box.acceptable() {
		s.deliver(Result{Cancelled: true})
		return
	}
	s.deliver(Result{Region: s.toScreenPixels(s.box.rect())})
}

// toScreenPixels converts widget points to screen pixels. On a scale-1
// display the two are identical; on HiDPI the widget is smaller in points
// than the screen is in pixels.
func (s *selectionWidget) toScreenPixels(r screenshot.Region) screenshot.Region {
	size := s.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return r
	}
	sx := float64(s.screenW) / float64(size.Width)
	sy := float64(s.screenH) / float64(size.Height)
	return screenshot.Region{
		X:      int(float64(r.X) * sx),
		Y:      int(float64(r.Y) * sy),
		Width:  int(float64(r.Width) * sx),
		Height: int(float64(r.Height) * sy),
	}
}

func (s *selectionWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewImageFromImage(s.frozen)
	bg.FillMode = canvas.ImageFillStretch
	bg.ScaleMode = canvas.ImageScaleFastest

	r := &selectionRenderer{owner: s, bg: bg}
	for i := range r.dims {
		r.dims[i] = canvas.NewRectangle(dimColor)
	}
	r.border = canvas.NewRectangle(color.Transparent)
	r.border.StrokeColor = accentColor
	r.border.StrokeWidth = 2
	for i := range r.handles {
		r.handles[i] = canvas.NewRectangle(accentColor)
	}
	r.badgeBg = canvas.NewRectangle(badgeColor)
	r.badge = canvas.NewText("", color.White)
	r.badge.TextStyle = fyne.TextStyle{Monospace: true}
	r.badge.TextSize = 14

	r.objects = []fyne.CanvasObject{bg}
	for _, d := range r.dims {
		r.objects = append(r.objects, d)
	}
	r.objects = append(r.objects, r.border)
	for _, h := range r.handles {
		r.objects = append(r.objects, h)
	}
	r.objects = append(r.objects, r.badgeBg, r.badge)
	s.rnd = r
	return r
}

type selectionRenderer struct {
	owner   *selectionWidget
	bg      *canvas.Image
	dims    [4]*canvas.Rectangle
	border  *canvas.Rectangle
	handles [8]*canvas.Rectangle
	badgeBg *canvas.Rectangle
	badge   *canvas.Text
	objects []fyne.CanvasObject
}

func (r *selectionRenderer) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (r *selectionRenderer) Layout(size fyne.Size) {
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Resize(size)
	r.layoutSelection(size)
}

func (r *selectionRenderer) Refresh() {
	r.layoutSelection(r.owner.Size())
	canvas.Refresh(r.owner)
}

func (r *selectionRenderer) layoutSelection(size fyne.Size) {
	box := r.owner.box
	if !box.active {
		// No drag in flight: dim the whole screen, hide the chrome.
		r.dims[0].Move(fyne.NewPos(0, 0))
		r.dims[0].Resize(size)
		for _, d := range r.dims[1:] {
			d.Resize(fyne.NewSize(0, 0))
		}
		r.border.Resize(fyne.NewSize(0, 0))
		for _, h := range r.handles {
			h.Resize(fyne.NewSize(0, 0))
		}
		r.badgeBg.Resize(fyne.NewSize(0, 0))
		r.badge.Text = ""
		r.badge.Refresh()
		return
	}

	sel := box.rect()
	x := float32(sel.X)
	y := float32(sel.Y)
	w := float32(sel.Width)
	h := float32(sel.Height)

	// Four rectangles around the hole: top, bottom, left, right.
	r.dims[0].Move(fyne.NewPos(0, 0))
	r.dims[0].Resize(fyne.NewSize(size.Width, y))
	r.dims[1].Move(fyne.NewPos(0, y+h))
	r.dims[1].Resize(fyne.NewSize(size.Width, size.Height-y-h))
	r.dims[2].Move(fyne.NewPos(0, y))
	r.dims[2].Resize(fyne.NewSize(x, h))
	r.dims[3].Move(fyne.NewPos(x+w, y))
	r.dims[3].Resize(fyne.NewSize(size.Width-x-w, h))

	r.border.Move(fyne.NewPos(x, y))
	r.border.Resize(fyne.NewSize(w, h))

	half := handleSize / 2
	anchors := [8]fyne.Position{
		{X: x, Y: y}, {X: x + w/2, Y: y}, {X: x + w, Y: y},
		{X: x, Y: y + h/2}, {X: x + w, Y: y + h/2},
		{X: x, Y: y + h}, {X: x + w/2, Y: y + h}, {X: x + w, Y: y + h},
	}
	for i, hd := range r.handles {
		hd.Move(fyne.NewPos(anchors[i].X-half, anchors[i].Y-half))
		hd.Resize(fyne.NewSize(handleSize, handleSize))
	}

	px := r.owner.toScreenPixels(sel)
	r.badge.Text = fmt.Sprintf("%d × %d", px.Width, px.Height)
	r.badge.Refresh()
	bx, by, _ := badgePosition(sel)
	badgeSize := fyne.MeasureText(r.badge.Text, r.badge.TextSize, r.badge.TextStyle)
	r.badgeBg.Move(fyne.NewPos(float32(bx), float32(by)))
	r.badgeBg.Resize(fyne.NewSize(badgeSize.Width+12, badgeSize.Height+6))
	r.badge.Move(fyne.NewPos(float32(bx)+6, float32(by)+3))
}

func (r *selectionRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *selectionRenderer) Destroy()                     {}
