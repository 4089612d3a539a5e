// Package painter turns a stream of hand landmarks into strokes on a
// persistent canvas and renders that canvas over the live frame.
package painter

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/palette"
)

// Stroke sizes and on-frame indicator geometry.
const (
	DefaultBrushThickness  = 25
	DefaultEraserThickness = 100
	CursorRadius           = 15
	SelectionPadding       = 25
	LandmarkRadius         = 4
	ConnectionThickness    = 2
)

// Skeleton colours, matching MediaPipe's drawing defaults.
var (
	landmarkColor   = color.RGBA{R: 255, A: 255}
	connectionColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Config holds the stroke sizes and whether the hand skeleton is drawn.
type Config struct {
	BrushThickness  int
	EraserThickness int
	ShowLandmarks   bool
}

// DefaultConfig returns the brush and eraser sizes the painter starts with.
func DefaultConfig() Config {
	return Config{
		BrushThickness:  DefaultBrushThickness,
		EraserThickness: DefaultEraserThickness,
		ShowLandmarks:   true,
	}
}

// Result describes what one frame did.
type Result struct {
	Hand    bool            `json:"hand"`
	Fingers gesture.Fingers `json:"fingers"`
	Mode    gesture.Mode    `json:"mode"`
	Cursor  image.Point     `json:"cursor"`
	Swatch  string          `json:"swatch"`
	Color   color.RGBA      `json:"color"`
	// Selected is true when this frame picked a new swatch.
	Selected bool `json:"selected"`
	// Cleared is true when this frame wiped the canvas.
	Cleared bool `json:"cleared"`
}

// Painter owns the canvas, the palette and the current stroke.
type Painter struct {
	config  Config
	canvas  *canvas.Canvas
	palette *palette.Palette

	// anchor is the previous fingertip position of the stroke in progress.
	anchor    image.Point
	hasAnchor bool
}

// New creates a painter drawing on c with colours from p.
func New(config Config, c *canvas.Canvas, p *palette.Palette) *Painter {
	if config.BrushThickness <= 0 {
		config.BrushThickness = DefaultBrushThickness
	}
	if config.EraserThickness <= 0 {
		config.EraserThickness = DefaultEraserThickness
	}
	return &Painter{
		config:  config,
		canvas:  c,
		palette: p,
	}
}

// Canvas returns the drawing layer.
func (p *Painter) Canvas() *canvas.Canvas {
	return p.canvas
}

// Palette returns the colour palette.
func (p *Painter) Palette() *palette.Palette {
	return p.palette
}

// Step applies one frame's hand to the canvas and draws the selection or
// cursor indicator onto frame. A nil hand ends the current stroke.
//
// The branches follow the gesture: with index and middle up a fingertip in
// the header picks a swatch; with only the index up a segment is painted from
// the previous fingertip position; with all fingers up the canvas is cleared.
func (p *Painter) Step(frame *gocv.Mat, hand *detector.HandLandmarks) Result {
	res := p.result()
	if hand == nil {
		p.hasAnchor = false
		return res
	}

	size := p.canvas.Size()
	points := hand.Pixels(size.X, size.Y)
	fingers := gesture.FingersUp(points)
	index := points[detector.IndexTip]
	middle := points[detector.MiddleTip]

	res.Hand = true
	res.Fingers = fingers
	res.Mode = gesture.Classify(fingers)
	res.Cursor = index

	if p.config.ShowLandmarks {
		DrawHand(frame, points)
	}

	if fingers.Selecting() {
		if i, ok := p.palette.Hit(index); ok && i != p.palette.SelectedIndex() {
			p.palette.Select(i)
			res.Selected = true
		}
		p.hasAnchor = false
		if frame != nil {
			box := image.Rect(index.X, index.Y-SelectionPadding, middle.X, middle.Y+SelectionPadding).Canon()
			gocv.Rectangle(frame, box, p.palette.Selected().Color, -1)
		}
	}

	if fingers[gesture.Index] && !fingers[gesture.Middle] {
		swatch := p.palette.Selected()
		if frame != nil {
			gocv.Circle(frame, index, CursorRadius, swatch.Color, -1)
		}
		if !p.hasAnchor {
			p.anchor = index
			p.hasAnchor = true
		}
		if swatch.Eraser {
			p.canvas.Erase(p.anchor, index, p.config.EraserThickness)
		} else {
			p.canvas.DrawSegment(p.anchor, index, swatch.Color, p.config.BrushThickness)
		}
		p.anchor = index
	} else {
		p.hasAnchor = false
	}

	if fingers.All() {
		p.canvas.Clear()
		p.hasAnchor = false
		res.Cleared = true
	}

	swatch := p.palette.Selected()
	res.Swatch = swatch.Name
	res.Color = swatch.Color
	return res
}

// DrawHand draws the landmarks of one hand and the connections between
// them onto frame. points must hold all 21 landmarks in pixel coordinates.
func DrawHand(frame *gocv.Mat, points []image.Point) {
	if frame == nil || frame.Empty() || len(points) < detector.NumLandmarks {
		return
	}
	for _, c := range detector.HandConnections {
		gocv.Line(frame, points[c[0]], points[c[1]], connectionColor, ConnectionThickness)
	}
	for _, pt := range points {
		gocv.Circle(frame, pt, LandmarkRadius, landmarkColor, -1)
	}
}

func (p *Painter) result() Result {
	swatch := p.palette.Selected()
	return Result{Mode: gesture.ModeIdle, Swatch: swatch.Name, Color: swatch.Color}
}

// Render composites the canvas onto frame and draws the palette header.
func (p *Painter) Render(frame *gocv.Mat) error {
	if err := p.canvas.Composite(frame); err != nil {
		return err
	}
	p.palette.DrawHeader(frame)
	return nil
}

// Clear wipes the canvas and ends the current stroke.
func (p *Painter) Clear() {
	p.canvas.Clear()
	p.hasAnchor = false
}

// Restore replaces the canvas contents with raw BGRA pixels of the same size.
func (p *Painter) Restore(bgra []byte) error {
	restored, err := canvas.FromBytes(p.canvas.Width(), p.canvas.Height(), bgra)
	if err != nil {
		return err
	}
	p.canvas.Close()
	p.canvas = restored
	p.hasAnchor = false
	return nil
}

// Snapshot returns a copy of the canvas pixels with the selected swatch name.
func (p *Painter) Snapshot() (bgra []byte, swatch string) {
	return p.canvas.Bytes(), p.palette.Selected().Name
}
