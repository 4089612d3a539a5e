package capture

import (
	"image/color"
	"testing"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name        string
		threshold   float64
		want        float64
		wantEnabled bool
	}{
		{name: "default threshold", threshold: 1.0, want: 1.0, wantEnabled: true},
		{name: "low threshold", threshold: 0.5, want: 0.5, wantEnabled: true},
		{name: "zero disables", threshold: 0, want: 0, wantEnabled: false},
		{name: "negative clamps to zero", threshold: -3, want: 0, wantEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if md.threshold != tt.want {
				t.Errorf("threshold = %f, want %f", md.threshold, tt.want)
			}
			if md.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", md.Enabled(), tt.wantEnabled)
			}
			if md.initialized {
				t.Error("motion detector should not be initialized initially")
			}
		})
	}
}

func TestMotionDetector_Detect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := SolidFrame(320, 240, color.RGBA{})
	defer black.Close()
	white := SolidFrame(320, 240, color.RGBA{R: 255, G: 255, B: 255})
	defer white.Close()

	if moved, pct := md.Detect(&black); moved || pct != 0 {
		t.Errorf("first frame = (%v, %f), want no motion", moved, pct)
	}
	if moved, pct := md.Detect(&black); moved {
		t.Errorf("identical frames reported motion, change = %f", pct)
	}

	moved, pct := md.Detect(&white)
	if !moved {
		t.Errorf("black to white should detect motion, change = %f", pct)
	}
	if pct < 50.0 {
		t.Errorf("change = %f, want > 50%% for black to white", pct)
	}
}

func TestMotionDetector_ShouldDetect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := SolidFrame(320, 240, color.RGBA{})
	defer black.Close()
	white := SolidFrame(320, 240, color.RGBA{R: 255, G: 255, B: 255})
	defer white.Close()

	t.Run("gated", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()

		if !md.ShouldDetect(&black) {
			t.Error("first frame must always be detected")
		}
		if md.ShouldDetect(&black) {
			t.Error("still frame should reuse previous landmarks")
		}
		if !md.ShouldDetect(&white) {
			t.Error("moving frame should be detected")
		}

		md.Reset()
		if !md.ShouldDetect(&white) {
			t.Error("first frame after Reset must be detected")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		md := NewMotionDetector(0)
		defer md.Close()

		for i := 0; i < 3; i++ {
			if !md.ShouldDetect(&black) {
				t.Fatalf("frame %d skipped with gating disabled", i)
			}
		}
	})
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := SolidFrame(64, 48, color.RGBA{R: 10})
	defer frame.Close()

	md.Detect(&frame)
	if !md.initialized {
		t.Fatal("detector should be initialized after first frame")
	}

	md.Reset()
	if md.initialized {
		t.Error("initialized should be false after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("prevGray should be empty after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}

	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}

	md.SetThreshold(0)
	if md.Enabled() {
		t.Error("zero threshold should disable gating")
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)

	md.Close()
	md.Close()
}

func TestMotionDetector_Detect_Empty(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if moved, pct := md.Detect(nil); moved || pct != 0 {
		t.Errorf("Detect(nil) = (%v, %f), want (false, 0)", moved, pct)
	}
}
