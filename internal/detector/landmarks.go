// Package detector provides hand landmark detection interfaces and types.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// TipIDs lists the fingertip landmark of each finger, thumb first.
var TipIDs = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// HandConnections are the landmark pairs joined when drawing the hand
// skeleton, in MediaPipe's order: palm, then each finger from its base.
var HandConnections = [][2]int{
	{Wrist, ThumbCMC}, {Wrist, IndexMCP}, {IndexMCP, MiddleMCP},
	{MiddleMCP, RingMCP}, {RingMCP, PinkyMCP}, {Wrist, PinkyMCP},
	{ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D is a landmark position. X and Y are normalised to the frame
// (0..1), Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Pixels converts the normalised landmarks to pixel coordinates of a frame
// with the given size. Coordinates are truncated toward zero.
func (h *HandLandmarks) Pixels(width, height int) []image.Point {
	if h == nil {
		return nil
	}

	points := make([]image.Point, NumLandmarks)
	for i, p := range h.Points {
		points[i] = image.Point{
			X: int(p.X * float64(width)),
			Y: int(p.Y * float64(height)),
		}
	}
	return points
}

// BoundingBox returns the smallest rectangle containing all pixel landmarks.
// The rectangle is inclusive of its max corner, so Max is one past the
// largest coordinate.
func (h *HandLandmarks) BoundingBox(width, height int) image.Rectangle {
	points := h.Pixels(width, height)
	if len(points) == 0 {
		return image.Rectangle{}
	}

	box := image.Rectangle{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min.X = min(box.Min.X, p.X)
		box.Min.Y = min(box.Min.Y, p.Y)
		box.Max.X = max(box.Max.X, p.X)
		box.Max.Y = max(box.Max.Y, p.Y)
	}
	box.Max = box.Max.Add(image.Pt(1, 1))
	return box
}
