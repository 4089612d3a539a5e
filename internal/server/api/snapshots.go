package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/store"
)

// SnapshotHandler handles HTTP requests for snapshot resources.
type SnapshotHandler struct {
	store   *store.Store
	control Controller
}

// NewSnapshotHandler creates a SnapshotHandler. control may be nil, in which
// case saving and restoring report 503.
func NewSnapshotHandler(s *store.Store, control Controller) *SnapshotHandler {
	return &SnapshotHandler{store: s, control: control}
}

// ServeHTTP routes requests. Expected paths:
//
//	/api/snapshots
//	/api/snapshots/{id}
//	/api/snapshots/{id}/image
//	/api/snapshots/{id}/restore
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "image":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.image(w, r, id)
	case len(parts) == 2 && parts[1] == "restore":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.restore(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type snapshotResponse struct {
	ID        string `json:"id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Color     string `json:"color"`
	Size      int    `json:"size,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func infoResponse(s *store.SnapshotInfo) snapshotResponse {
	return snapshotResponse{
		ID:        s.ID,
		Width:     s.Width,
		Height:    s.Height,
		Color:     s.Color,
		Size:      s.Size,
		CreatedAt: s.CreatedAt.Format(timeFormat),
	}
}

func toResponse(s *store.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:        s.ID,
		Width:     s.Width,
		Height:    s.Height,
		Color:     s.Color,
		CreatedAt: s.CreatedAt.Format(timeFormat),
	}
}

// list handles GET /api/snapshots.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{
		Snapshots: make([]snapshotResponse, 0, len(snaps)),
	}
	for _, s := range snaps {
		response.Snapshots = append(response.Snapshots, infoResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/snapshots by asking the paint loop to save the
// current canvas.
func (h *SnapshotHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.control == nil {
		writeError(w, http.StatusServiceUnavailable, "Painter not running")
		return
	}

	snap, err := h.control.SaveSnapshot(r.Context())
	if err != nil {
		controlError(w, err, "Failed to save snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(snap))
}

// get handles GET /api/snapshots/{id}.
func (h *SnapshotHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.load(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(snap))
}

// delete handles DELETE /api/snapshots/{id}.
func (h *SnapshotHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Snapshots().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// image handles GET /api/snapshots/{id}/image?format=png|bmp|tiff.
func (h *SnapshotHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	format, err := canvas.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Format must be one of: "+strings.Join(canvas.Formats, ", "))
		return
	}

	snap, ok := h.load(w, id)
	if !ok {
		return
	}

	img, err := canvas.ToNRGBA(snap.Width, snap.Height, snap.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Corrupt snapshot")
		return
	}

	var buf bytes.Buffer
	if err := canvas.Encode(&buf, img, format); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode image")
		return
	}

	w.Header().Set("Content-Type", canvas.ContentType(format))
	w.Header().Set("Content-Disposition", `inline; filename="`+snap.ID+"."+format+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// restore handles POST /api/snapshots/{id}/restore.
func (h *SnapshotHandler) restore(w http.ResponseWriter, r *http.Request, id string) {
	if h.control == nil {
		writeError(w, http.StatusServiceUnavailable, "Painter not running")
		return
	}

	snap, ok := h.load(w, id)
	if !ok {
		return
	}

	if err := h.control.Restore(r.Context(), snap); err != nil {
		if errors.Is(err, canvas.ErrSizeMismatch) {
			writeError(w, http.StatusConflict, "Snapshot size does not match the canvas")
			return
		}
		controlError(w, err, "Failed to restore snapshot")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(snap))
}

func (h *SnapshotHandler) load(w http.ResponseWriter, id string) (*store.Snapshot, bool) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return nil, false
	}
	return snap, true
}
