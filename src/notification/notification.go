package notification

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"
)

const sendTimeout = 3 * time.Second

// notifyBinary is swapped out by tests.
var notifyBinary = "notify-send"

// Show displays a transient desktop notification via notify-send. Falls back
// to the log when no notification daemon is reachable.
func Show(title, body string) {
	go func() {
		if err := send(title, body); err != nil {
			log.Printf("Notification: %s: %s (notify-send unavailable: %v)", title, body, err)
		}
	}()
}

// ShowCaptureResult announces a saved file.
func ShowCaptureResult(kind, path string) {
	Show(fmt.Sprintf("%s saved", kind), path)
}

// ShowError announces a failed operation.
func ShowError(message string) {
	Show("Capture failed", message)
}

func send(title, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return exec.CommandContext(ctx, notifyBinary, "--app-name=screencap", title, body).Run()
}
