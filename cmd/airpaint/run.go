package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/display"
	"github.com/ayusman/airpaint/internal/painter"
	"github.com/ayusman/airpaint/internal/server"
	"github.com/ayusman/airpaint/internal/store"
)

// WindowTitle names the preview window.
const WindowTitle = "AirPaint"

func runPaint(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	log.Info().
		Int("camera", cfg.CameraID).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Str("db", cfg.DBPath).
		Str("http", cfg.HTTPAddr).
		Bool("headless", cfg.Headless).
		Msg("Starting AirPaint")

	det := newDetector()

	var disp display.Display
	if cfg.Headless {
		disp = display.NewHeadless()
	} else {
		disp = display.NewWindow(WindowTitle)
	}

	deps := app.Deps{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.CameraID,
			Width:    cfg.Width,
			Height:   cfg.Height,
			FPS:      cfg.FPS,
		}),
		Detector: det,
		Display:  disp,
		Store:    st,
		Logger:   log.Logger,
	}
	if cfg.HTTPAddr != "" {
		deps.Frames = server.NewFrameHub(cfg.StreamQuality, log.Logger)
		deps.State = server.NewStateHub(log.Logger)
	}

	a, err := app.New(app.Config{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Mirror:    cfg.Mirror,
		HeaderDir: cfg.HeaderDir,
		Color:     cfg.Color,
		Painter: painter.Config{
			BrushThickness:  cfg.BrushThickness,
			EraserThickness: cfg.EraserThickness,
			ShowLandmarks:   cfg.ShowLandmarks,
		},
		MotionThreshold: cfg.MotionThreshold,
		StatusEvery:     cfg.StatusEvery,
	}, deps)
	if err != nil {
		det.Close()
		disp.Close()
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Error during cleanup")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, endLoop := context.WithCancel(gctx)
	defer endLoop()

	if cfg.HTTPAddr != "" {
		srv := server.New(server.Config{
			StaticDir:       findWebDir(),
			Store:           st,
			Frames:          deps.Frames,
			State:           deps.State,
			Control:         a,
			Logger:          log.Logger,
			ShutdownTimeout: cfg.ShutdownTimeout,
		})
		g.Go(func() error {
			return srv.Run(loopCtx, cfg.HTTPAddr)
		})
	}

	// The window must be driven from the main goroutine.
	runErr := a.Run(loopCtx)
	endLoop()

	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return runErr
}

// newDetector starts MediaPipe if its service script can be found. Without
// it the painter still runs, showing the camera and canvas only.
func newDetector() detector.Detector {
	dc := detector.DefaultConfig()
	dc.MaxHands = cfg.MaxHands
	dc.MinConfidence = cfg.DetectionConfidence
	dc.MinTrackingConf = cfg.TrackingConfidence
	dc.Python = cfg.Python

	mp, err := detector.NewMediaPipeDetector(dc, log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("MediaPipe not available, hand detection disabled")
		return detector.NewMockDetector()
	}
	log.Info().Msg("Using MediaPipe hand detection")
	return mp
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web" and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", filepath.Join(cfg.DataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}
