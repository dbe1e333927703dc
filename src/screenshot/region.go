package screenshot

import "fmt"

// Region represents a screen region in pixel coordinates.
// The zero Region means "no region chosen, use the full screen".
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

type Point struct {
	X int
	Y int
}

// Empty reports whether the region carries no usable area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// EvenSized returns the region with width and height rounded down to even
// values. Video encoders reject odd frame dimensions.
func (r Region) EvenSized() Region {
	r.Width &^= 1
	r.Height &^= 1
	return r
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Normalize builds the region spanned by two opposite corners, regardless of
// drag direction.
func Normalize(a, b Point) Region {
	x, y := a.X, a.Y
	if b.X < x {
		x = b.X
	}
	if b.Y < y {
		y = b.Y
	}
	w := a.X - b.X
	if w < 0 {
		w = -w
	}
	h := a.Y - b.Y
	if h < 0 {
		h = -h
	}
	return Region{X: x, Y: y, Width: w, Height: h}
}
