package gesture

// Mode is what the painter does with a frame.
type Mode int

const (
	// ModeIdle does nothing to the canvas.
	ModeIdle Mode = iota
	// ModeSelect picks a palette swatch with the index fingertip.
	ModeSelect
	// ModeDraw paints a stroke with the index fingertip.
	ModeDraw
	// ModeClear wipes the canvas.
	ModeClear
)

func (m Mode) String() string {
	switch m {
	case ModeSelect:
		return "select"
	case ModeDraw:
		return "draw"
	case ModeClear:
		return "clear"
	default:
		return "idle"
	}
}

// MarshalText lets modes appear by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Classify maps finger states to a mode.
//
// All five fingers up clears. Index and middle up selects. Index up with the
// middle finger down draws. Anything else is idle. A clear also satisfies the
// selection condition; callers that mirror the selection side effects should
// check Selecting.
func Classify(f Fingers) Mode {
	switch {
	case f.All():
		return ModeClear
	case f[Index] && f[Middle]:
		return ModeSelect
	case f[Index]:
		return ModeDraw
	default:
		return ModeIdle
	}
}

// Selecting reports whether the selection gesture (index and middle up) is held.
func (f Fingers) Selecting() bool {
	return f[Index] && f[Middle]
}
