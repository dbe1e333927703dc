package hotkey

import (
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// binding tracks one registered combination and the pressed state of its keys.
type binding struct {
	combo    string
	keys     []comboKey
	callback func()
}

type comboKey struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

var (
	mu       sync.Mutex
	bindings []*binding
	loopOnce sync.Once
)

// Listen registers a combination like "Ctrl+Alt+R" or a bare "F9" and invokes
// the callback when all its keys are held. A single shared gohook event loop
// serves every registered combination.
func Listen(hotkeyConfig string, callback func()) {
	names := parseHotkey(hotkeyConfig)

	b := &binding{combo: hotkeyConfig, callback: callback}
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			log.Printf("ERROR: Cannot map key '%s' to rawcodes, hotkey may not work correctly", name)
			continue
		}
		b.keys = append(b.keys, comboKey{name: name, rawcodes: rawcodes})
	}
	if len(b.keys) == 0 {
		log.Printf("ERROR: No valid keys in hotkey configuration '%s'", hotkeyConfig)
		return
	}

	mu.Lock()
	bindings = append(bindings, b)
	mu.Unlock()
	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)

	loopOnce.Do(startEventLoop)
}

func startEventLoop() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		log.Printf("Hotkey event loop started")

		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				for _, cb := range updatePressed(ev.Rawcode, true) {
					cb()
				}
			case gohook.KeyUp:
				updatePressed(ev.Rawcode, false)
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}

// updatePressed records a key transition and returns the callbacks of every
// binding that just became fully pressed. Callbacks run outside the lock.
func updatePressed(rawcode uint16, down bool) []func() {
	mu.Lock()
	defer mu.Unlock()

	var fired []func()
	for _, b := range bindings {
		matched := false
		for i := range b.keys {
			for _, rc := range b.keys[i].rawcodes {
				if rc == rawcode {
					b.keys[i].pressed = down
					matched = true
					break
				}
			}
		}
		if !matched || !down {
			continue
		}

		all := true
		for i := range b.keys {
			if !b.keys[i].pressed {
				all = false
				break
			}
		}
		if all {
			log.Printf("Hotkey activated: %s", b.combo)
			for i := range b.keys {
				b.keys[i].pressed = false
			}
			if b.callback != nil {
				fired = append(fired, b.callback)
			}
		}
	}
	return fired
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "super")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

// keyNameToRawcodes maps a key name to its X11 keysym rawcodes as reported by
// gohook on Linux. Modifiers return both left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "ctrl":
		return []uint16{65507, 65508} // XK_Control_L, XK_Control_R
	case "alt":
		return []uint16{65513, 65514} // XK_Alt_L, XK_Alt_R
	case "shift":
		return []uint16{65505, 65506} // XK_Shift_L, XK_Shift_R
	case "super":
		return []uint16{65515, 65516} // XK_Super_L, XK_Super_R
	}

	// Function keys F1..F12 are contiguous from XK_F1.
	if len(keyName) >= 2 && keyName[0] == 'f' {
		if n := parseFunctionKey(keyName[1:]); n >= 1 && n <= 12 {
			return []uint16{uint16(65469 + n)} // XK_F1 = 65470
		}
	}

	// Letters and digits report their ASCII keysym.
	if len(keyName) == 1 {
		c := keyName[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return []uint16{uint16(c)}
		}
	}

	return nil
}

func parseFunctionKey(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
