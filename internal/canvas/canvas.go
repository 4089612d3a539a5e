// Package canvas holds the persistent transparent drawing layer that is
// painted by finger strokes and blended over each camera frame.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// ErrSizeMismatch is returned when a frame does not match the canvas size.
var ErrSizeMismatch = errors.New("frame size does not match canvas")

// ErrFrameType is returned when a frame is not 8-bit 3-channel BGR.
var ErrFrameType = errors.New("frame must be 8-bit BGR")

// Canvas is a BGRA layer the size of the video frame. Pixels start fully
// transparent. A Canvas is not safe for concurrent use.
type Canvas struct {
	mat    gocv.Mat
	width  int
	height int
}

// New creates a transparent canvas of the given size.
func New(width, height int) *Canvas {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC4)
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return &Canvas{mat: mat, width: width, height: height}
}

// FromBytes rebuilds a canvas from raw BGRA bytes as returned by Bytes.
func FromBytes(width, height int, data []byte) (*Canvas, error) {
	if want := width * height * 4; len(data) != want {
		return nil, fmt.Errorf("canvas data is %d bytes, want %d", len(data), want)
	}
	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, data)
	if err != nil {
		return nil, fmt.Errorf("create canvas mat: %w", err)
	}
	return &Canvas{mat: mat, width: width, height: height}, nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Size returns the canvas dimensions.
func (c *Canvas) Size() image.Point { return image.Pt(c.width, c.height) }

// DrawSegment paints an opaque line from one point to another.
func (c *Canvas) DrawSegment(from, to image.Point, col color.RGBA, thickness int) {
	col.A = 255
	gocv.Line(&c.mat, from, to, col, thickness)
}

// Erase makes the pixels along a line transparent again.
func (c *Canvas) Erase(from, to image.Point, thickness int) {
	gocv.Line(&c.mat, from, to, color.RGBA{}, thickness)
}

// Clear makes every pixel transparent.
func (c *Canvas) Clear() {
	c.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// At returns the BGRA pixel at (x, y) as an RGBA colour.
func (c *Canvas) At(x, y int) color.RGBA {
	v := c.mat.GetVecbAt(y, x)
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: v[3]}
}

// Empty reports whether every pixel is transparent.
func (c *Canvas) Empty() bool {
	data, err := c.mat.DataPtrUint8()
	if err != nil {
		return false
	}
	for i := 3; i < len(data); i += 4 {
		if data[i] != 0 {
			return false
		}
	}
	return true
}

// Composite blends the canvas over a BGR frame in place:
//
//	out = (canvas*a + frame*(255-a)) / 255
//
// per channel, where a is the canvas alpha.
func (c *Canvas) Composite(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrSizeMismatch
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		return ErrFrameType
	}
	if frame.Cols() != c.width || frame.Rows() != c.height {
		return fmt.Errorf("%w: frame %dx%d, canvas %dx%d",
			ErrSizeMismatch, frame.Cols(), frame.Rows(), c.width, c.height)
	}

	dst, err := frame.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("frame data: %w", err)
	}
	src, err := c.mat.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("canvas data: %w", err)
	}

	blend(dst, src)
	return nil
}

// blend applies the canvas pixels in src (BGRA) over dst (BGR).
func blend(dst, src []byte) {
	for i, j := 0, 0; i+2 < len(dst) && j+3 < len(src); i, j = i+3, j+4 {
		a := uint32(src[j+3])
		switch a {
		case 0:
			continue
		case 255:
			dst[i], dst[i+1], dst[i+2] = src[j], src[j+1], src[j+2]
		default:
			inv := 255 - a
			for k := 0; k < 3; k++ {
				dst[i+k] = uint8((uint32(src[j+k])*a + uint32(dst[i+k])*inv) / 255)
			}
		}
	}
}

// Bytes returns a copy of the raw BGRA pixels, row-major.
func (c *Canvas) Bytes() []byte {
	return c.mat.ToBytes()
}

// Image returns the canvas as a non-premultiplied RGBA image.
func (c *Canvas) Image() (*image.NRGBA, error) {
	return ToNRGBA(c.width, c.height, c.Bytes())
}

// ToNRGBA converts raw BGRA bytes into an image.
func ToNRGBA(width, height int, bgra []byte) (*image.NRGBA, error) {
	if want := width * height * 4; len(bgra) != want {
		return nil, fmt.Errorf("canvas data is %d bytes, want %d", len(bgra), want)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(bgra); i += 4 {
		img.Pix[i+0] = bgra[i+2]
		img.Pix[i+1] = bgra[i+1]
		img.Pix[i+2] = bgra[i+0]
		img.Pix[i+3] = bgra[i+3]
	}
	return img, nil
}

// Close releases the underlying matrix.
func (c *Canvas) Close() error {
	return c.mat.Close()
}
