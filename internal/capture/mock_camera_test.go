package capture

import (
	"errors"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	red := SolidFrame(64, 48, color.RGBA{R: 255})
	defer red.Close()
	green := SolidFrame(64, 48, color.RGBA{G: 255})
	defer green.Close()

	cam := NewMockCamera([]*gocv.Mat{&red, &green}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if px := f1.GetVecbAt(0, 0); px[2] != 255 {
		t.Errorf("first frame pixel = %v, want red", px)
	}
	// Playback hands out clones; drawing on one leaves the source intact.
	f1.SetTo(gocv.NewScalar(0, 0, 0, 0))
	f1.Close()
	if px := red.GetVecbAt(0, 0); px[2] != 255 {
		t.Error("source frame was modified through the returned clone")
	}

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if px := f2.GetVecbAt(0, 0); px[1] != 255 {
		t.Errorf("second frame pixel = %v, want green", px)
	}
	f2.Close()

	if _, err = cam.ReadFrame(); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("ReadFrame() after end error = %v, want ErrNoMoreFrames", err)
	}

	cam.Reset()
	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after Reset error = %v", err)
	}
	f.Close()
}

func TestMockCamera_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := SolidFrame(64, 48, color.RGBA{})
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
	if cam.Reads() != 5 {
		t.Errorf("Reads() = %d, want 5", cam.Reads())
	}
}

func TestMockCamera_FailedRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := SolidFrame(64, 48, color.RGBA{})
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{nil, &frame}, false)
	cam.Open()
	defer cam.Close()

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("nil entry error = %v, want ErrEmptyFrame", err)
	}

	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("read after a failed frame error = %v", err)
	}
	f.Close()
}

func TestMockCamera_FPS(t *testing.T) {
	cam := NewMockCamera(nil, false)

	if cam.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", cam.FPS(), DefaultFPS)
	}
	cam.SetFPS(12)
	cam.SetFPS(0)
	if cam.FPS() != 12 {
		t.Errorf("FPS() = %d, want 12", cam.FPS())
	}

	cam.Open()
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("empty playback error = %v, want ErrNoMoreFrames", err)
	}
}
