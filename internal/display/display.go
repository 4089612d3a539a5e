// Package display shows composed frames to the user.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// KeyNone is returned by WaitKey when no key was pressed.
const KeyNone = -1

// Key codes handled by the app.
const (
	KeyEscape = 27
)

// Display presents frames and reports key presses.
type Display interface {
	Show(frame *gocv.Mat) error
	// WaitKey pumps the UI event loop for up to ms milliseconds and returns
	// the pressed key, or KeyNone.
	WaitKey(ms int) int
	Close() error
}

// Window is an OpenCV HighGUI window.
type Window struct {
	win *gocv.Window
	mu  sync.Mutex
}

// NewWindow opens a named window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame *gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.win == nil || frame == nil || frame.Empty() {
		return nil
	}
	w.win.IMShow(*frame)
	return nil
}

func (w *Window) WaitKey(ms int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.win == nil {
		return KeyNone
	}
	return w.win.WaitKey(ms)
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.win == nil {
		return nil
	}
	err := w.win.Close()
	w.win = nil
	return err
}

// Headless discards frames. Keys pushed with Press are returned by WaitKey
// one at a time, which lets tests and remote control drive the app.
type Headless struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	closed bool
}

// NewHeadless returns a display with no window.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(frame *gocv.Mat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
	return nil
}

func (h *Headless) WaitKey(int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.keys) == 0 {
		return KeyNone
	}
	k := h.keys[0]
	h.keys = h.keys[1:]
	return k
}

// Press queues a key for a later WaitKey.
func (h *Headless) Press(keys ...int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, keys...)
}

// Shown returns how many frames were presented.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
