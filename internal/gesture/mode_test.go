package gesture

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		fingers   Fingers
		want      Mode
		selecting bool
	}{
		{"nothing", Fingers{}, ModeIdle, false},
		{"thumb only", Fingers{true, false, false, false, false}, ModeIdle, false},
		{"middle only", Fingers{false, false, true, false, false}, ModeIdle, false},
		{"index only", Fingers{false, true, false, false, false}, ModeDraw, false},
		{"index with ring and pinky", Fingers{false, true, false, true, true}, ModeDraw, false},
		{"index and middle", Fingers{false, true, true, false, false}, ModeSelect, true},
		{"four fingers", Fingers{false, true, true, true, true}, ModeSelect, true},
		{"all five", Fingers{true, true, true, true, true}, ModeClear, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.fingers); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if got := tt.fingers.Selecting(); got != tt.selecting {
				t.Errorf("Selecting() = %v, want %v", got, tt.selecting)
			}
		})
	}
}

func TestMode_MarshalText(t *testing.T) {
	for mode, want := range map[Mode]string{
		ModeIdle:   "idle",
		ModeSelect: "select",
		ModeDraw:   "draw",
		ModeClear:  "clear",
	} {
		got, err := mode.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("MarshalText() = %q, want %q", got, want)
		}
	}
}
