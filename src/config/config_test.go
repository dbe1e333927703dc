package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{
		"SAVE_ROOT", "SCREENSHOT_FORMAT", "REC_FPS", "REC_QUALITY",
		"REC_AUDIO", "REC_WEBCAM", "HOTKEY_SCREENSHOT", "HOTKEY_RECORD", "HOTKEY_STOP",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 2, cfg.Quality)
	assert.True(t, cfg.Audio)
	assert.False(t, cfg.Webcam)
	assert.Equal(t, "bottom-right", cfg.WebcamPos)
	assert.Equal(t, "medium", cfg.WebcamSize)
	assert.Equal(t, "png", cfg.ScreenshotFormat)
	assert.Equal(t, "F5", cfg.HotkeyScreenshot)
	assert.Equal(t, "F9", cfg.HotkeyRecord)
	assert.Equal(t, "F10", cfg.HotkeyStop)
	assert.Equal(t, filepath.Join(cfg.SaveRoot, "screenshots"), cfg.ScreenshotDir)
	assert.Equal(t, filepath.Join(cfg.SaveRoot, "recordings"), cfg.RecordingDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SAVE_ROOT", "/tmp/caps")
	t.Setenv("REC_FPS", "60")
	t.Setenv("REC_QUALITY", "4")
	t.Setenv("REC_AUDIO", "false")
	t.Setenv("REC_WEBCAM", "yes")
	t.Setenv("SCREENSHOT_FORMAT", "JPEG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/caps", cfg.SaveRoot)
	assert.Equal(t, filepath.Join("/tmp/caps", "recordings"), cfg.RecordingDir)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, 4, cfg.Quality)
	assert.False(t, cfg.Audio)
	assert.True(t, cfg.Webcam)
	assert.Equal(t, "jpg", cfg.ScreenshotFormat)
}

func TestBadValuesFallBack(t *testing.T) {
	t.Setenv("REC_FPS", "-5")
	t.Setenv("REC_QUALITY", "9")
	t.Setenv("REC_AUDIO", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 2, cfg.Quality)
	assert.True(t, cfg.Audio)
}
