package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHotkey(t *testing.T) {
	assert.Equal(t, []string{"ctrl", "alt", "q"}, parseHotkey("Ctrl+Alt+Q"))
	assert.Equal(t, []string{"f9"}, parseHotkey("F9"))
	assert.Equal(t, []string{"super", "s"}, parseHotkey("Win+S"))
	assert.Equal(t, []string{"shift", "f10"}, parseHotkey(" Shift + F10 "))
}

func TestKeyNameToRawcodes(t *testing.T) {
	assert.Equal(t, []uint16{65507, 65508}, keyNameToRawcodes("ctrl"))
	assert.Equal(t, []uint16{65505, 65506}, keyNameToRawcodes("shift"))
	assert.Equal(t, []uint16{65474}, keyNameToRawcodes("f5"), "F5 keysym")
	assert.Equal(t, []uint16{65478}, keyNameToRawcodes("f9"), "F9 keysym")
	assert.Equal(t, []uint16{65479}, keyNameToRawcodes("f10"), "F10 keysym")
	assert.Equal(t, []uint16{uint16('q')}, keyNameToRawcodes("Q"))
	assert.Equal(t, []uint16{uint16('3')}, keyNameToRawcodes("3"))
	assert.Nil(t, keyNameToRawcodes("f13"), "only F1..F12 are mapped")
	assert.Nil(t, keyNameToRawcodes("??"))
}

func TestCombinationFires(t *testing.T) {
	mu.Lock()
	bindings = nil
	mu.Unlock()

	fires := 0
	b := &binding{combo: "Ctrl+R", callback: func() { fires++ }}
	b.keys = []comboKey{
		{name: "ctrl", rawcodes: keyNameToRawcodes("ctrl")},
		{name: "r", rawcodes: keyNameToRawcodes("r")},
	}
	mu.Lock()
	bindings = append(bindings, b)
	mu.Unlock()

	for _, cb := range updatePressed(65507, true) {
		cb()
	}
	assert.Zero(t, fires, "modifier alone must not fire")

	for _, cb := range updatePressed(uint16('r'), true) {
		cb()
	}
	assert.Equal(t, 1, fires)

	// States reset after firing, so the letter alone does not re-trigger.
	updatePressed(uint16('r'), false)
	for _, cb := range updatePressed(uint16('r'), true) {
		cb()
	}
	assert.Equal(t, 1, fires)
}
