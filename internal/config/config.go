// Package config loads runtime settings from a .env file and AIRPAINT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AIRPAINT_"

var validate = validator.New()

type Config struct {
	// Camera
	CameraID int `validate:"min=0"`
	Width    int `validate:"min=160,max=7680"`
	Height   int `validate:"min=120,max=4320"`
	FPS      int `validate:"min=1,max=240"`
	Mirror   bool

	// Painting
	HeaderDir       string `validate:"required"`
	BrushThickness  int    `validate:"min=1,max=200"`
	EraserThickness int    `validate:"min=1,max=500"`
	Color           string `validate:"omitempty,oneof=purple blue green eraser"`

	// Detection
	// MotionThreshold is the percent of changed pixels below which the
	// previous landmarks are reused. 0 runs detection on every frame.
	MotionThreshold     float64 `validate:"min=0,max=100"`
	MaxHands            int     `validate:"min=1,max=4"`
	DetectionConfidence float64 `validate:"min=0,max=1"`
	TrackingConfidence  float64 `validate:"min=0,max=1"`
	Python              string

	// Output
	Headless bool
	// ShowLandmarks draws the tracked hand skeleton on the preview.
	ShowLandmarks bool
	// HTTPAddr is the listen address. Empty disables the server.
	HTTPAddr      string `validate:"omitempty,hostname_port"`
	StreamQuality int    `validate:"min=1,max=100"`
	StatusEvery   int    `validate:"min=1"`

	// Storage
	DataDir string `validate:"required"`
	DBPath  string `validate:"required"`

	LogLevel string `validate:"oneof=trace debug info warn error"`

	ShutdownTimeout time.Duration `validate:"min=0"`
}

// Load reads .env (if present) and the environment into a Config. Values not
// set fall back to defaults; call Validate after applying flag overrides.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	dataDir := getEnv("DATA_DIR", DefaultDataDir())

	return &Config{
		CameraID: getEnvInt("CAMERA", 0),
		Width:    getEnvInt("WIDTH", 1280),
		Height:   getEnvInt("HEIGHT", 720),
		FPS:      getEnvInt("FPS", 30),
		Mirror:   getEnvBool("MIRROR", true),

		HeaderDir:       getEnv("HEADER_DIR", filepath.Join(dataDir, "Header")),
		BrushThickness:  getEnvInt("BRUSH", 25),
		EraserThickness: getEnvInt("ERASER", 100),
		Color:           strings.ToLower(getEnv("COLOR", "")),

		MotionThreshold:     getEnvFloat("MOTION_THRESHOLD", 0),
		MaxHands:            getEnvInt("MAX_HANDS", 1),
		DetectionConfidence: getEnvFloat("DETECTION_CONFIDENCE", 0.7),
		TrackingConfidence:  getEnvFloat("TRACKING_CONFIDENCE", 0.5),
		Python:              getEnv("PYTHON", ""),

		Headless:      getEnvBool("HEADLESS", false),
		ShowLandmarks: getEnvBool("SHOW_LANDMARKS", true),
		HTTPAddr:      getEnvAllowEmpty("HTTP_ADDR", "127.0.0.1:8420"),
		StreamQuality: getEnvInt("STREAM_QUALITY", 80),
		StatusEvery:   getEnvInt("STATUS_EVERY", 10),

		DataDir: dataDir,
		DBPath:  getEnv("DB", filepath.Join(dataDir, "airpaint.db")),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// DefaultDataDir returns ~/.airpaint, or .airpaint in the working directory
// when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airpaint"
	}
	return filepath.Join(home, ".airpaint")
}

// Validate checks field ranges and returns the first violation as a readable
// error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fe := range validationErrors {
				field := strings.ToLower(fe.Field())
				switch fe.Tag() {
				case "required":
					return fmt.Errorf("missing required setting: %s", field)
				case "min", "max":
					return fmt.Errorf("setting %s out of range (%s %s): %v", field, fe.Tag(), fe.Param(), fe.Value())
				case "oneof":
					return fmt.Errorf("invalid value for %s, must be one of: %s", field, fe.Param())
				case "hostname_port":
					return fmt.Errorf("invalid listen address for %s: %v", field, fe.Value())
				default:
					return fmt.Errorf("validation error for setting %s: %s", field, fe.Tag())
				}
			}
		}
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// EnsureDataDir creates the data directory.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnv for settings where an explicitly empty value
// means "off".
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", EnvPrefix+key).Str("value", value).Msg("Ignoring non-integer setting")
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Warn().Str("key", EnvPrefix+key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
