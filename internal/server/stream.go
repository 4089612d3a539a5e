package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// DefaultStreamQuality is the JPEG quality of streamed frames.
const DefaultStreamQuality = 80

// FrameHub fans composited frames out to MJPEG clients. Frames are JPEG
// encoded once per Publish and only while someone is watching. Slow clients
// skip frames instead of stalling the paint loop.
type FrameHub struct {
	quality int
	log     zerolog.Logger

	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	latest []byte
	closed bool
}

// NewFrameHub creates a hub encoding at the given JPEG quality (1-100).
func NewFrameHub(quality int, log zerolog.Logger) *FrameHub {
	if quality <= 0 || quality > 100 {
		quality = DefaultStreamQuality
	}
	return &FrameHub{
		quality: quality,
		log:     log.With().Str("component", "stream").Logger(),
		subs:    make(map[chan []byte]struct{}),
	}
}

// Publish encodes frame and hands it to every subscriber. It is a no-op
// without subscribers.
func (h *FrameHub) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() || h.Subscribers() == 0 {
		return nil
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, h.quality})
	if err != nil {
		return fmt.Errorf("encode stream frame: %w", err)
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	h.PublishJPEG(jpeg)
	return nil
}

// PublishJPEG hands an already encoded frame to every subscriber and keeps it
// for clients that connect later.
func (h *FrameHub) PublishJPEG(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.latest = jpeg
	for ch := range h.subs {
		offer(ch, jpeg)
	}
}

// offer replaces whatever is pending in the single-slot channel.
func offer(ch chan []byte, v []byte) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Subscribe registers a receiver. The most recent frame, if any, is delivered
// first. The returned cancel function must be called when done.
func (h *FrameHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.latest != nil {
		ch <- h.latest
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of connected clients.
func (h *FrameHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects all subscribers and rejects new ones.
func (h *FrameHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// ServeHTTP streams frames as multipart/x-mixed-replace JPEG.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frames, cancel := h.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("Stream client connected")
	defer h.log.Debug().Str("remote", r.RemoteAddr).Msg("Stream client disconnected")

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg, ok := <-frames:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
				return
			}
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
