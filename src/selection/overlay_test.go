package selection

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlayUnavailableWithoutHost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newOverlayPicker()
	p.capture = func(ctx context.Context) (image.Image, error) {
		t.Fatal("screen must not be captured when no UI host is running")
		return nil, nil
	}

	_, ok := p.attempt(ctx)
	assert.False(t, ok, "without a host the overlay defers instead of touching the UI toolkit")
}
