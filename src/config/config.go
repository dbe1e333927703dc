package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// AltConfigEnvVar points at a .env file when none sits next to the
	// executable.
	AltConfigEnvVar = "SCREENCAP_CONFIG"
)

type Config struct {
	SaveRoot      string // base directory for all captures
	ScreenshotDir string // SaveRoot/screenshots
	RecordingDir  string // SaveRoot/recordings

	ScreenshotFormat string // "png" or "jpg"
	ScreenshotQual   int    // JPEG quality
	ScreenshotDelay  int    // seconds before a grab
	CopyToClipboard  bool   // put the saved path on the clipboard

	FPS        int
	Quality    int // 0..4 encoder tier
	Audio      bool
	Webcam     bool
	WebcamPos  string
	WebcamSize string

	HotkeyScreenshot string
	HotkeyRecord     string
	HotkeyStop       string

	EnableFileLogging bool
}

func Load() (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREENCAP_CONFIG env var as a path to a config file
	envPath := resolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	saveRoot := getEnvWithDefault("SAVE_ROOT", defaultSaveRoot())

	cfg := &Config{
		SaveRoot:      saveRoot,
		ScreenshotDir: filepath.Join(saveRoot, "screenshots"),
		RecordingDir:  filepath.Join(saveRoot, "recordings"),

		ScreenshotFormat: normalizeFormat(os.Getenv("SCREENSHOT_FORMAT")),
		ScreenshotQual:   getEnvInt("SCREENSHOT_QUALITY", 90),
		ScreenshotDelay:  getEnvInt("SCREENSHOT_DELAY", 0),
		CopyToClipboard:  getEnvBool("COPY_TO_CLIPBOARD", true),

		FPS:        getEnvInt("REC_FPS", 30),
		Quality:    getEnvInt("REC_QUALITY", 2),
		Audio:      getEnvBool("REC_AUDIO", true),
		Webcam:     getEnvBool("REC_WEBCAM", false),
		WebcamPos:  getEnvWithDefault("WEBCAM_POS", "bottom-right"),
		WebcamSize: getEnvWithDefault("WEBCAM_SIZE", "medium"),

		HotkeyScreenshot: getEnvWithDefault("HOTKEY_SCREENSHOT", "F5"),
		HotkeyRecord:     getEnvWithDefault("HOTKEY_RECORD", "F9"),
		HotkeyStop:       getEnvWithDefault("HOTKEY_STOP", "F10"),

		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
	}

	if cfg.Quality < 0 || cfg.Quality > 4 {
		cfg.Quality = 2
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}

	return cfg, nil
}

// EnsureDirs creates the capture directories if missing.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ScreenshotDir, c.RecordingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltConfigEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func defaultSaveRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "captures"
	}
	return filepath.Join(home, "Videos", "screencap")
}

func normalizeFormat(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "jpg", "jpeg":
		return "jpg"
	default:
		return "png"
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
