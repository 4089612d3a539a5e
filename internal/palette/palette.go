// Package palette defines the colour swatches shown in the header strip and
// how a fingertip position selects one of them.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// DefaultHeaderHeight is the height of the header strip in pixels.
const DefaultHeaderHeight = 125

// Swatch is one selectable colour. A fingertip selects it when it is inside
// the header strip and strictly between MinX and MaxX.
type Swatch struct {
	Name   string
	Color  color.RGBA
	MinX   int
	MaxX   int
	Eraser bool

	header *gocv.Mat
}

// Palette is the ordered set of swatches plus the current selection.
type Palette struct {
	Width        int
	HeaderHeight int
	Swatches     []Swatch
	selected     int
}

// Default returns the purple, blue, green and eraser swatches laid out for a
// frame of the given width. The ranges are those of a 1280 pixel frame and
// are scaled for other widths.
func Default(width int) *Palette {
	scale := func(x int) int { return x * width / 1280 }
	return &Palette{
		Width:        width,
		HeaderHeight: DefaultHeaderHeight,
		Swatches: []Swatch{
			{Name: "purple", Color: color.RGBA{R: 255, G: 0, B: 255, A: 255}, MinX: scale(250), MaxX: scale(450)},
			{Name: "blue", Color: color.RGBA{R: 0, G: 0, B: 255, A: 255}, MinX: scale(550), MaxX: scale(750)},
			{Name: "green", Color: color.RGBA{R: 0, G: 255, B: 0, A: 255}, MinX: scale(800), MaxX: scale(950)},
			{Name: "eraser", Color: color.RGBA{A: 255}, MinX: scale(1050), MaxX: scale(1200), Eraser: true},
		},
	}
}

// Hit returns the index of the swatch under p, if any.
func (p *Palette) Hit(pt image.Point) (int, bool) {
	if pt.Y >= p.HeaderHeight {
		return 0, false
	}
	for i, s := range p.Swatches {
		if s.MinX < pt.X && pt.X < s.MaxX {
			return i, true
		}
	}
	return 0, false
}

// Select makes swatch i current. Out-of-range indexes are ignored.
func (p *Palette) Select(i int) bool {
	if i < 0 || i >= len(p.Swatches) {
		return false
	}
	p.selected = i
	return true
}

// SelectByName makes the named swatch current.
func (p *Palette) SelectByName(name string) bool {
	for i, s := range p.Swatches {
		if strings.EqualFold(s.Name, name) {
			p.selected = i
			return true
		}
	}
	return false
}

// Selected returns the current swatch.
func (p *Palette) Selected() Swatch {
	return p.Swatches[p.selected]
}

// SelectedIndex returns the index of the current swatch.
func (p *Palette) SelectedIndex() int {
	return p.selected
}

// LoadHeaders loads one header image per swatch from dir, in file name
// order. If dir does not exist it is created and populated with generated
// headers first. Swatches without a matching file keep the generated strip.
func (p *Palette) LoadHeaders(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := p.WriteDefaultHeaders(dir); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read header dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".bmp":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		if i >= len(p.Swatches) {
			break
		}
		img := gocv.IMRead(filepath.Join(dir, name), gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			continue
		}
		p.setHeader(i, &img)
	}

	return nil
}

// WriteDefaultHeaders writes a generated header per swatch as 1.png, 2.png, ...
func (p *Palette) WriteDefaultHeaders(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create header dir: %w", err)
	}

	for i := range p.Swatches {
		strip := p.renderStrip(i)
		path := filepath.Join(dir, fmt.Sprintf("%d.png", i+1))
		ok := gocv.IMWrite(path, strip)
		strip.Close()
		if !ok {
			return fmt.Errorf("write header %s", path)
		}
	}
	return nil
}

func (p *Palette) setHeader(i int, img *gocv.Mat) {
	if old := p.Swatches[i].header; old != nil {
		old.Close()
	}
	p.Swatches[i].header = img
}

// DrawHeader paints the header of the selected swatch over the top of frame.
func (p *Palette) DrawHeader(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	header := p.Swatches[p.selected].header
	if header == nil {
		strip := p.renderStrip(p.selected)
		defer strip.Close()
		header = &strip
	}

	w := min(header.Cols(), frame.Cols())
	h := min(header.Rows(), frame.Rows())
	if w <= 0 || h <= 0 {
		return
	}

	area := image.Rect(0, 0, w, h)
	src := header.Region(area)
	defer src.Close()
	dst := frame.Region(area)
	defer dst.Close()
	src.CopyTo(&dst)
}

// renderStrip draws a header showing every swatch in its hit range, with
// the active one outlined.
func (p *Palette) renderStrip(active int) gocv.Mat {
	strip := gocv.NewMatWithSize(p.HeaderHeight, p.Width, gocv.MatTypeCV8UC3)
	strip.SetTo(gocv.NewScalar(40, 40, 40, 0))

	for i, s := range p.Swatches {
		box := image.Rect(s.MinX, 15, s.MaxX, p.HeaderHeight-15)
		fill := s.Color
		if s.Eraser {
			fill = color.RGBA{R: 230, G: 230, B: 230, A: 255}
		}
		gocv.Rectangle(&strip, box, fill, -1)
		if s.Eraser {
			gocv.PutText(&strip, "ERASER", image.Pt(s.MinX+10, p.HeaderHeight/2+8),
				gocv.FontHersheySimplex, 0.8, color.RGBA{A: 255}, 2)
		}
		if i == active {
			gocv.Rectangle(&strip, box.Inset(-6), color.RGBA{R: 255, G: 255, B: 255, A: 255}, 4)
		}
	}

	return strip
}

// Close releases loaded header images.
func (p *Palette) Close() {
	for i := range p.Swatches {
		if h := p.Swatches[i].header; h != nil {
			h.Close()
			p.Swatches[i].header = nil
		}
	}
}
