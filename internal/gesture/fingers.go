// Package gesture interprets hand landmarks as finger states and painter modes.
package gesture

import (
	"image"
	"strconv"
	"strings"

	"github.com/ayusman/airpaint/internal/detector"
)

// Finger identifies one finger of a hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerNames = [...]string{"Thumb", "Index", "Middle", "Ring", "Pinky"}

func (f Finger) String() string {
	if f < Thumb || f > Pinky {
		return "Finger(" + strconv.Itoa(int(f)) + ")"
	}
	return fingerNames[f]
}

// Fingers records which fingers are extended, indexed by Finger.
type Fingers [5]bool

// FingersUp classifies each finger as extended or not from pixel landmarks.
//
// The thumb is up when its tip lies to the right of the joint below it. The
// other fingers are up when the tip lies above their PIP joint. Fewer than
// 21 landmarks leaves every finger down.
func FingersUp(points []image.Point) Fingers {
	var f Fingers
	if len(points) < detector.NumLandmarks {
		return f
	}

	tip := detector.TipIDs[Thumb]
	f[Thumb] = points[tip].X > points[tip-1].X

	for finger := Index; finger <= Pinky; finger++ {
		tip := detector.TipIDs[finger]
		f[finger] = points[tip].Y < points[tip-2].Y
	}

	return f
}

// Count returns the number of extended fingers.
func (f Fingers) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// All reports whether every finger is extended.
func (f Fingers) All() bool {
	return f.Count() == len(f)
}

// Up lists the extended fingers, thumb first.
func (f Fingers) Up() []Finger {
	var up []Finger
	for i, ok := range f {
		if ok {
			up = append(up, Finger(i))
		}
	}
	return up
}

// String renders a status line such as "Fingers up: 2 - Index, Middle".
func (f Fingers) String() string {
	up := f.Up()
	names := "None"
	if len(up) > 0 {
		parts := make([]string, len(up))
		for i, finger := range up {
			parts[i] = finger.String()
		}
		names = strings.Join(parts, ", ")
	}
	return "Fingers up: " + strconv.Itoa(len(up)) + " - " + names
}
