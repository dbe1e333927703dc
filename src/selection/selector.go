// Package selection lets the user choose a screen rectangle. It prefers
// native X11 selection tools (slop, then scrot's select mode) and falls back
// to a self-rendered full-screen overlay when neither exists. Callers only
// ever see the Selector facade; which picker ran is invisible.
package selection

import (
	"context"
	"log"

	"screencap/src/screenshot"
)

// Result is the single outcome of one selection session.
type Result struct {
	Region screenshot.Region
	// SavedImage is set only by the scrot picker, which saves the selected
	// pixels but cannot report their screen offset. Callers that need the
	// pixels must use this file; Region is anchored at the origin.
	SavedImage string
	Cancelled  bool
}

// picker is one selection strategy. attempt returns ok=false when the
// strategy is unavailable or produced no definitive outcome, in which case
// the next strategy runs.
type picker interface {
	name() string
	attempt(ctx context.Context) (Result, bool)
}

// Selector tries each picker in order and unifies their outcomes.
type Selector struct {
	pickers []picker
}

func NewSelector() *Selector {
	return &Selector{
		pickers: []picker{
			newSlopPicker(),
			newScrotPicker(),
			newOverlayPicker(),
		},
	}
}

// Select runs one selection session. It blocks until the user resolves or
// cancels; a hung external tool is bounded by per-picker timeouts.
func (s *Selector) Select(ctx context.Context) Result {
	for _, p := range s.pickers {
		res, ok := p.attempt(ctx)
		if !ok {
			continue
		}
		if res.Cancelled {
			log.Printf("selection: %s picker cancelled", p.name())
		} else {
			log.Printf("selection: %s picker resolved %s", p.name(), res.Region)
		}
		return res
	}
	log.Printf("selection: no picker produced an outcome")
	return Result{Cancelled: true}
}
