package palette

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestPalette_Hit(t *testing.T) {
	p := Default(1280)

	tests := []struct {
		name   string
		pt     image.Point
		want   int
		wantOK bool
	}{
		{"purple", image.Pt(300, 50), 0, true},
		{"blue", image.Pt(600, 124), 1, true},
		{"green", image.Pt(900, 0), 2, true},
		{"eraser", image.Pt(1100, 60), 3, true},
		{"lower bound is exclusive", image.Pt(250, 50), 0, false},
		{"upper bound is exclusive", image.Pt(450, 50), 0, false},
		{"gap between swatches", image.Pt(500, 50), 0, false},
		{"below header", image.Pt(300, 125), 0, false},
		{"right of palette", image.Pt(1250, 50), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Hit(tt.pt)
			if ok != tt.wantOK {
				t.Fatalf("Hit(%v) ok = %v, want %v", tt.pt, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Hit(%v) = %d, want %d", tt.pt, got, tt.want)
			}
		})
	}
}

func TestDefault_ScalesWithWidth(t *testing.T) {
	p := Default(640)

	if p.Swatches[0].MinX != 125 || p.Swatches[0].MaxX != 225 {
		t.Errorf("purple range = %d..%d, want 125..225", p.Swatches[0].MinX, p.Swatches[0].MaxX)
	}
	if p.Swatches[3].MaxX != 600 {
		t.Errorf("eraser MaxX = %d, want 600", p.Swatches[3].MaxX)
	}
}

func TestPalette_Select(t *testing.T) {
	p := Default(1280)

	if p.Selected().Name != "purple" {
		t.Errorf("default selection = %q, want purple", p.Selected().Name)
	}

	if !p.Select(2) {
		t.Fatal("Select(2) should succeed")
	}
	if p.SelectedIndex() != 2 || p.Selected().Name != "green" {
		t.Errorf("selection = %d %q, want 2 green", p.SelectedIndex(), p.Selected().Name)
	}

	if p.Select(7) || p.Select(-1) {
		t.Error("out-of-range Select should fail")
	}
	if p.SelectedIndex() != 2 {
		t.Errorf("failed Select changed selection to %d", p.SelectedIndex())
	}

	if !p.SelectByName("Eraser") || !p.Selected().Eraser {
		t.Error("SelectByName is case-insensitive and should pick the eraser")
	}
	if p.SelectByName("orange") {
		t.Error("unknown name should not select")
	}
}

func TestPalette_LoadHeaders_GeneratesDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV image IO")
	}

	dir := filepath.Join(t.TempDir(), "Header")
	p := Default(1280)
	defer p.Close()

	if err := p.LoadHeaders(dir); err != nil {
		t.Fatalf("LoadHeaders() error = %v", err)
	}

	for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected generated header %s: %v", name, err)
		}
	}

	for i, s := range p.Swatches {
		if s.header == nil || s.header.Empty() {
			t.Errorf("swatch %d has no header loaded", i)
		}
	}
}

func TestPalette_DrawHeader(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := Default(320)
	defer p.Close()

	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	p.DrawHeader(&frame)

	// Inside the purple swatch box: BGR (255, 0, 255).
	s := p.Swatches[0]
	px := frame.GetVecbAt(p.HeaderHeight/2, (s.MinX+s.MaxX)/2)
	if px[0] != 255 || px[1] != 0 || px[2] != 255 {
		t.Errorf("header pixel = %v, want purple", px)
	}

	// Below the header the frame is untouched.
	below := frame.GetVecbAt(p.HeaderHeight+5, 10)
	if below[0] != 0 || below[1] != 0 || below[2] != 0 {
		t.Errorf("pixel below header = %v, want black", below)
	}
}
