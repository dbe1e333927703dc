package selection

import "screencap/src/screenshot"

// minSelectionSpan is how many pixels each side of a drag must exceed before
// release counts as a real selection rather than a stray click.
const minSelectionSpan = 10

// badgeClearance is the vertical room the size badge needs above a rect.
const badgeClearance = 50

// dragBox tracks an in-progress rubber-band drag. All coordinates are in
// screen pixels; geometry only, no widget state.
type dragBox struct {
	anchor  screenshot.Point
	current screenshot.Point
	active  bool
}

func (d *dragBox) begin(p screenshot.Point) {
	d.anchor = p
	d.current = p
	d.active = true
}

func (d *dragBox) moveTo(p screenshot.Point) {
	if d.active {
		d.current = p
	}
}

func (d *dragBox) end() {
	d.active = false
}

// rect returns the normalized rectangle regardless of drag direction.
func (d *dragBox) rect() screenshot.Region {
	return screenshot.Normalize(d.anchor, d.current)
}

// acceptable reports whether the drag spans enough pixels to count as a
// deliberate selection.
func (d *dragBox) acceptable() bool {
	r := d.rect()
	return r.Width > minSelectionSpan && r.Height > minSelectionSpan
}

// badgePosition picks where to render the size badge: above the rect unless
// that would push it off the top of the screen, in which case below.
func badgePosition(r screenshot.Region) (x, y int, below bool) {
	if r.Y < badgeClearance {
		return r.X, r.Y + r.Height + 8, true
	}
	return r.X, r.Y - badgeClearance + 8, false
}
