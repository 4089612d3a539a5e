package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/display"
	"github.com/ayusman/airpaint/internal/painter"
	"github.com/ayusman/airpaint/internal/store"
)

var fpsColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Run opens the camera and processes frames until ctx is cancelled, ESC is
// pressed or the camera reports the end of its stream. Per-frame failures
// are logged and the frame skipped.
func (a *App) Run(ctx context.Context) error {
	if !a.start() {
		return errors.New("app: already running")
	}
	defer a.stop()

	if err := a.deps.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.deps.Camera.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Error closing camera")
		}
	}()

	a.log.Info().
		Int("width", a.config.Width).
		Int("height", a.config.Height).
		Bool("mirror", a.config.Mirror).
		Str("color", a.painter.Palette().Selected().Name).
		Msg("Paint loop started")
	defer func() { a.log.Info().Msg("Paint loop stopped") }()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		a.applyCommands()

		if done := a.step(); done {
			return nil
		}
	}
}

// step processes one frame and reports whether the loop should end.
func (a *App) step() bool {
	frame, err := a.deps.Camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrNoMoreFrames) {
			a.log.Info().Msg("Camera stream ended")
			return true
		}
		a.sampled.Warn().Err(err).Msg("Skipping frame: capture failed")
		time.Sleep(readRetryDelay)
		return false
	}
	defer frame.Close()

	capture.Prepare(frame, a.config.Width, a.config.Height, a.config.Mirror)

	res := a.painter.Step(frame, a.detect(frame))
	a.report(res)

	if err := a.painter.Render(frame); err != nil {
		a.sampled.Warn().Err(err).Msg("Skipping frame: render failed")
		// Keep the window responsive so the user can still quit.
		return a.handleKey(a.deps.Display.WaitKey(1))
	}
	a.drawFPS(frame)

	a.publish(frame, res)

	if err := a.deps.Display.Show(frame); err != nil {
		a.sampled.Warn().Err(err).Msg("Display failed")
	}
	return a.handleKey(a.deps.Display.WaitKey(1))
}

// detect returns the first hand in frame. Still frames reuse the previous
// result when motion gating is on.
func (a *App) detect(frame *gocv.Mat) *detector.HandLandmarks {
	if !a.motion.ShouldDetect(frame) {
		return a.lastHand
	}

	hands, err := a.deps.Detector.Detect(frame)
	if err != nil {
		a.sampled.Warn().Err(err).Msg("Hand detection failed")
		a.lastHand = nil
		return nil
	}
	if len(hands) == 0 {
		a.lastHand = nil
		return nil
	}
	hand := hands[0]
	a.lastHand = &hand
	return a.lastHand
}

// report logs and persists what the frame changed.
func (a *App) report(res painter.Result) {
	if res.Selected {
		a.log.Info().Str("color", res.Swatch).Msg("Colour selected")
		if a.deps.Store != nil {
			if err := a.deps.Store.Settings().Set(store.SettingColor, res.Swatch); err != nil {
				a.log.Warn().Err(err).Msg("Failed to save colour")
			}
		}
	}
	if res.Cleared {
		a.log.Debug().Msg("Canvas cleared by gesture")
	}
	if !res.Hand {
		return
	}

	a.handFrames++
	if a.handFrames%a.config.StatusEvery == 0 {
		a.log.Info().
			Str("fingers", res.Fingers.String()).
			Stringer("mode", res.Mode).
			Str("color", res.Swatch).
			Msg("Hand status")
	}
}

// drawFPS overlays a smoothed frame rate in the bottom-left corner.
func (a *App) drawFPS(frame *gocv.Mat) {
	now := time.Now()
	if !a.lastFrame.IsZero() {
		if dt := now.Sub(a.lastFrame).Seconds(); dt > 0 {
			inst := 1 / dt
			if a.fps == 0 {
				a.fps = inst
			} else {
				a.fps = 0.9*a.fps + 0.1*inst
			}
		}
	}
	a.lastFrame = now

	gocv.PutText(frame, fmt.Sprintf("FPS: %d", int(a.fps+0.5)),
		image.Pt(10, frame.Rows()-20), gocv.FontHersheyPlain, 2, fpsColor, 2)
}

func (a *App) publish(frame *gocv.Mat, res painter.Result) {
	if a.deps.Frames != nil {
		if err := a.deps.Frames.Publish(frame); err != nil {
			a.sampled.Warn().Err(err).Msg("Stream publish failed")
		}
	}
	if a.deps.State != nil {
		if err := a.deps.State.Publish(res); err != nil {
			a.sampled.Warn().Err(err).Msg("State publish failed")
		}
	}
}

// handleKey applies keyboard shortcuts and reports whether to quit.
func (a *App) handleKey(key int) bool {
	if key == display.KeyNone {
		return false
	}
	switch key & 0xFF {
	case display.KeyEscape, 'q':
		a.log.Info().Msg("Quit requested")
		return true
	case 'c':
		a.painter.Clear()
		a.log.Info().Msg("Canvas cleared")
	case 's':
		snap, err := a.save(a.snapshot())
		if err != nil {
			a.log.Error().Err(err).Msg("Failed to save snapshot")
			break
		}
		a.log.Info().Str("id", snap.ID).Msg("Snapshot saved")
	}
	return false
}
