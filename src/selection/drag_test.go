package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"screencap/src/screenshot"
)

func TestDragNormalizesDirection(t *testing.T) {
	var d dragBox
	d.begin(screenshot.Point{X: 300, Y: 250})
	d.moveTo(screenshot.Point{X: 100, Y: 100})
	d.end()

	assert.Equal(t, screenshot.Region{X: 100, Y: 100, Width: 200, Height: 150}, d.rect())
	assert.True(t, d.acceptable())
}

func TestShortDragIsNotAcceptable(t *testing.T) {
	var d dragBox
	d.begin(screenshot.Point{X: 100, Y: 100})
	d.moveTo(screenshot.Point{X: 105, Y: 103})
	d.end()

	assert.False(t, d.acceptable(), "a few-pixel drag is a stray click")
}

func TestWideButFlatDragIsNotAcceptable(t *testing.T) {
	var d dragBox
	d.begin(screenshot.Point{X: 0, Y: 100})
	d.moveTo(screenshot.Point{X: 500, Y: 104})
	d.end()

	assert.False(t, d.acceptable(), "both sides must exceed the minimum span")
}

func TestMoveIgnoredAfterRelease(t *testing.T) {
	var d dragBox
	d.begin(screenshot.Point{X: 10, Y: 10})
	d.moveTo(screenshot.Point{X: 200, Y: 200})
	d.end()
	d.moveTo(screenshot.Point{X: 900, Y: 900})

	assert.Equal(t, screenshot.Region{X: 10, Y: 10, Width: 190, Height: 190}, d.rect())
}

func TestBadgeFlipsBelowNearTopEdge(t *testing.T) {
	_, _, below := badgePosition(screenshot.Region{X: 40, Y: 10, Width: 200, Height: 100})
	assert.True(t, below)

	_, _, below = badgePosition(screenshot.Region{X: 40, Y: 400, Width: 200, Height: 100})
	assert.False(t, below)
}
