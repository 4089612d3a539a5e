package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/airpaint/internal/config"
)

var cfg *config.Config

// Flag values. They override the environment only when set explicitly.
var (
	flagCamera    int
	flagWidth     int
	flagHeight    int
	flagNoMirror  bool
	flagHeaderDir string
	flagColor     string
	flagBrush     int
	flagEraser    int
	flagMotion    float64
	flagPython    string
	flagHeadless  bool
	flagNoHand    bool
	flagHTTP      string
	flagDB        string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "airpaint",
	Short: "Paint in the air with your index finger",
	Long: `AirPaint tracks one hand through the webcam and paints on a transparent
canvas laid over the video.

  index finger up            draw with the selected colour
  index and middle up        select a colour from the header
  all five fingers up        clear the canvas

Keys: ESC or q quits, c clears, s saves a snapshot.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runPaint,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the painter (default)",
	Args:  cobra.NoArgs,
	RunE:  runPaint,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&flagCamera, "camera", 0, "Camera device index")
	pf.IntVar(&flagWidth, "width", 1280, "Frame and canvas width")
	pf.IntVar(&flagHeight, "height", 720, "Frame and canvas height")
	pf.BoolVar(&flagNoMirror, "no-mirror", false, "Do not flip the camera image horizontally")
	pf.StringVar(&flagHeaderDir, "header-dir", "", "Directory with palette header images")
	pf.StringVar(&flagColor, "color", "", "Initial colour: purple, blue, green or eraser")
	pf.IntVar(&flagBrush, "brush", 25, "Brush thickness in pixels")
	pf.IntVar(&flagEraser, "eraser", 100, "Eraser thickness in pixels")
	pf.Float64Var(&flagMotion, "motion-threshold", 0, "Percent of changed pixels needed to rerun detection (0 = every frame)")
	pf.StringVar(&flagPython, "python", "", "Python interpreter for the MediaPipe service")
	pf.BoolVar(&flagHeadless, "headless", false, "Run without a window")
	pf.BoolVar(&flagNoHand, "no-landmarks", false, "Do not draw the tracked hand skeleton")
	pf.StringVar(&flagHTTP, "http", "", "HTTP listen address for the stream and API (empty string disables)")
	pf.StringVar(&flagDB, "db", "", "SQLite database path")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment, applies explicit flags, validates the
// result and sets the log level.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Load()

	flags := cmd.Flags()
	if flags.Changed("camera") {
		cfg.CameraID = flagCamera
	}
	if flags.Changed("width") {
		cfg.Width = flagWidth
	}
	if flags.Changed("height") {
		cfg.Height = flagHeight
	}
	if flags.Changed("no-mirror") {
		cfg.Mirror = !flagNoMirror
	}
	if flags.Changed("header-dir") {
		cfg.HeaderDir = flagHeaderDir
	}
	if flags.Changed("color") {
		cfg.Color = flagColor
	}
	if flags.Changed("brush") {
		cfg.BrushThickness = flagBrush
	}
	if flags.Changed("eraser") {
		cfg.EraserThickness = flagEraser
	}
	if flags.Changed("motion-threshold") {
		cfg.MotionThreshold = flagMotion
	}
	if flags.Changed("python") {
		cfg.Python = flagPython
	}
	if flags.Changed("headless") {
		cfg.Headless = flagHeadless
	}
	if flags.Changed("no-landmarks") {
		cfg.ShowLandmarks = !flagNoHand
	}
	if flags.Changed("http") {
		cfg.HTTPAddr = flagHTTP
	}
	if flags.Changed("db") {
		cfg.DBPath = flagDB
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
		cfg.LogLevel = "info"
	}
	zerolog.SetGlobalLevel(level)

	return cfg.Validate()
}
