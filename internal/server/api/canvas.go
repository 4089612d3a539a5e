package api

import (
	"net/http"
)

// CanvasHandler handles POST /api/canvas/clear.
type CanvasHandler struct {
	control Controller
}

// NewCanvasHandler creates a CanvasHandler that forwards to control.
func NewCanvasHandler(control Controller) *CanvasHandler {
	return &CanvasHandler{control: control}
}

func (h *CanvasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.control == nil {
		writeError(w, http.StatusServiceUnavailable, "Painter not running")
		return
	}

	if err := h.control.Clear(r.Context()); err != nil {
		controlError(w, err, "Failed to clear canvas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
