// Package app runs the paint loop: capture, hand detection, painting,
// compositing and presentation, plus the commands other goroutines send it.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/display"
	"github.com/ayusman/airpaint/internal/painter"
	"github.com/ayusman/airpaint/internal/palette"
	"github.com/ayusman/airpaint/internal/server"
	"github.com/ayusman/airpaint/internal/store"
)

// Loop constants.
const (
	// DefaultStatusEvery is how many frames with a hand pass between status lines.
	DefaultStatusEvery = 10
	// CommandBuffer is the capacity of the command queue.
	CommandBuffer = 8
	// CommandTimeout bounds how long a caller waits for the loop to apply a command.
	CommandTimeout = 2 * time.Second
	// readRetryDelay throttles the loop while the camera keeps failing.
	readRetryDelay = 10 * time.Millisecond
)

// ErrNoStore is returned when saving a snapshot without a database.
var ErrNoStore = errors.New("snapshot storage is not configured")

// Config holds configuration options for the application.
type Config struct {
	Width  int
	Height int
	Mirror bool

	HeaderDir string
	// Color names the initial swatch. Empty restores the last saved choice.
	Color   string
	Painter painter.Config

	MotionThreshold float64
	StatusEvery     int
}

// Deps are the collaborators the loop drives. Store, Frames and State may be
// nil.
type Deps struct {
	Camera   capture.Camera
	Detector detector.Detector
	Display  display.Display
	Store    *store.Store
	Frames   *server.FrameHub
	State    *server.StateHub
	Logger   zerolog.Logger
}

// App is the paint loop and the state it owns.
type App struct {
	config Config
	deps   Deps
	log    zerolog.Logger
	// sampled throttles per-frame warnings.
	sampled zerolog.Logger

	painter *painter.Painter
	motion  *capture.MotionDetector

	commands chan command

	// done is non-nil while Run is active and closed when it returns.
	mu   sync.Mutex
	done chan struct{}

	lastHand   *detector.HandLandmarks
	handFrames int
	fps        float64
	lastFrame  time.Time
}

// New builds the canvas, palette and painter for the configured frame size.
// Header images are loaded from HeaderDir; when that fails the palette falls
// back to generated strips.
func New(config Config, deps Deps) (*App, error) {
	if deps.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if deps.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if deps.Display == nil {
		deps.Display = display.NewHeadless()
	}
	if config.Width <= 0 {
		config.Width = capture.DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = capture.DefaultHeight
	}
	if config.StatusEvery <= 0 {
		config.StatusEvery = DefaultStatusEvery
	}

	log := deps.Logger.With().Str("component", "app").Logger()

	pal := palette.Default(config.Width)
	if config.HeaderDir != "" {
		if err := pal.LoadHeaders(config.HeaderDir); err != nil {
			log.Warn().Err(err).Str("dir", config.HeaderDir).Msg("Using generated palette header")
		}
	}

	a := &App{
		config:   config,
		deps:     deps,
		log:      log,
		sampled:  log.Sample(&zerolog.BasicSampler{N: 30}),
		painter:  painter.New(config.Painter, canvas.New(config.Width, config.Height), pal),
		motion:   capture.NewMotionDetector(config.MotionThreshold),
		commands: make(chan command, CommandBuffer),
	}
	a.restoreColor()

	return a, nil
}

// restoreColor selects the configured swatch, or the one saved last run.
func (a *App) restoreColor() {
	pal := a.painter.Palette()
	name := a.config.Color
	if name == "" && a.deps.Store != nil {
		saved, err := a.deps.Store.Settings().Get(store.SettingColor)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			a.log.Warn().Err(err).Msg("Failed to read saved colour")
		}
		name = saved
	}
	if name == "" {
		return
	}
	if !pal.SelectByName(name) {
		a.log.Warn().Str("color", name).Msg("Unknown colour, keeping default")
		return
	}
	a.log.Debug().Str("color", pal.Selected().Name).Msg("Colour restored")
}

// Painter returns the painter driven by the loop. It must only be used from
// the loop goroutine, or before Run starts.
func (a *App) Painter() *painter.Painter {
	return a.painter
}

// Running reports whether Run is active.
func (a *App) Running() bool {
	return a.loopDone() != nil
}

// Close releases the detector, display, motion detector and canvas. Call it
// after Run returns.
func (a *App) Close() error {
	var errs []error
	if err := a.deps.Detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if err := a.deps.Display.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close display: %w", err))
	}
	a.motion.Close()
	a.painter.Palette().Close()
	if err := a.painter.Canvas().Close(); err != nil {
		errs = append(errs, fmt.Errorf("close canvas: %w", err))
	}
	return errors.Join(errs...)
}
