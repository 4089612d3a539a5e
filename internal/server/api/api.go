// Package api provides HTTP API handlers for canvas control and snapshots.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/airpaint/internal/store"
)

// ErrUnavailable is returned by a Controller whose paint loop is not running.
var ErrUnavailable = errors.New("painter not running")

// Controller applies canvas commands on the paint loop.
type Controller interface {
	Clear(ctx context.Context) error
	SaveSnapshot(ctx context.Context) (*store.Snapshot, error)
	Restore(ctx context.Context, snap *store.Snapshot) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// controlError maps a Controller failure to a status code.
func controlError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Painter not running")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Painter did not respond")
	default:
		writeError(w, http.StatusInternalServerError, message)
	}
}
