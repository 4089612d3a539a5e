package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	queue  [][]HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect once the queue is empty.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-frame results that Detect returns in order before
// falling back to the hands set with SetHands. A nil entry means no hand.
func (m *MockDetector) Queue(frames ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued result, the configured hands, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Pose builds a right hand, palm facing the camera, with the given fingers
// extended. The order is thumb, index, middle, ring, pinky.
func Pose(up [5]bool) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}
	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
	if up[0] {
		lm.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.70}
		lm.Points[ThumbIP] = Point3D{X: 0.65, Y: 0.66}
		lm.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.62}
	} else {
		lm.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.72}
		lm.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.68}
		lm.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.66}
	}

	// MCP x position of index, middle, ring, pinky.
	baseX := [4]float64{0.55, 0.50, 0.45, 0.40}
	for f := 0; f < 4; f++ {
		mcp := IndexMCP + f*4
		x := baseX[f]
		lm.Points[mcp] = Point3D{X: x, Y: 0.68}
		if up[f+1] {
			lm.Points[mcp+1] = Point3D{X: x, Y: 0.56, Z: -0.01}
			lm.Points[mcp+2] = Point3D{X: x, Y: 0.46, Z: -0.02}
			lm.Points[mcp+3] = Point3D{X: x, Y: 0.38, Z: -0.03}
		} else {
			lm.Points[mcp+1] = Point3D{X: x, Y: 0.62, Z: -0.04}
			lm.Points[mcp+2] = Point3D{X: x - 0.01, Y: 0.66, Z: -0.05}
			lm.Points[mcp+3] = Point3D{X: x - 0.02, Y: 0.70, Z: -0.03}
		}
	}

	return lm
}

// IndexUpLandmarks returns a hand with only the index finger extended (draw).
func IndexUpLandmarks() HandLandmarks {
	return Pose([5]bool{false, true, false, false, false})
}

// TwoFingersLandmarks returns a hand with index and middle extended (select).
func TwoFingersLandmarks() HandLandmarks {
	return Pose([5]bool{false, true, true, false, false})
}

// OpenPalmLandmarks returns a hand with all five fingers extended (clear).
func OpenPalmLandmarks() HandLandmarks {
	return Pose([5]bool{true, true, true, true, true})
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return Pose([5]bool{})
}

// AtIndexTip returns a copy of hand translated so that the index fingertip
// lands on the normalised position (x, y).
func AtIndexTip(hand HandLandmarks, x, y float64) HandLandmarks {
	dx := x - hand.Points[IndexTip].X
	dy := y - hand.Points[IndexTip].Y
	for i := range hand.Points {
		hand.Points[i].X += dx
		hand.Points[i].Y += dy
	}
	return hand
}
