package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// fakeController records calls and saves a fixed 2x2 canvas.
type fakeController struct {
	store    *store.Store
	err      error
	clears   int
	restored *store.Snapshot
}

func (f *fakeController) Clear(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.clears++
	return nil
}

func (f *fakeController) SaveSnapshot(ctx context.Context) (*store.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	snap := &store.Snapshot{Width: 2, Height: 2, Color: "green", Data: canvasPixels()}
	if err := f.store.Snapshots().Create(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (f *fakeController) Restore(ctx context.Context, snap *store.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.restored = snap
	return nil
}

// canvasPixels is a 2x2 BGRA layer with an opaque green top-left pixel.
func canvasPixels() []byte {
	data := make([]byte, 16)
	copy(data, []byte{0, 255, 0, 255})
	return data
}

func seed(t *testing.T, s *store.Store) *store.Snapshot {
	t.Helper()
	snap := &store.Snapshot{Width: 2, Height: 2, Color: "purple", Data: canvasPixels()}
	if err := s.Snapshots().Create(snap); err != nil {
		t.Fatalf("failed to create snapshot: %v", err)
	}
	return snap
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSnapshotHandler_List(t *testing.T) {
	s := newTestStore(t)
	snap := seed(t, s)
	handler := NewSnapshotHandler(s, nil)

	rec := do(handler, http.MethodGet, "/api/snapshots")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listSnapshotsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Snapshots) != 1 || response.Snapshots[0].ID != snap.ID {
		t.Fatalf("unexpected snapshots: %+v", response.Snapshots)
	}
	if response.Snapshots[0].Size == 0 {
		t.Error("list should report the stored size")
	}
}

func TestSnapshotHandler_List_Empty(t *testing.T) {
	rec := do(NewSnapshotHandler(newTestStore(t), nil), http.MethodGet, "/api/snapshots")

	if !bytes.Contains(rec.Body.Bytes(), []byte(`"snapshots":[]`)) {
		t.Errorf("empty list should encode as [], got %s", rec.Body.String())
	}
}

func TestSnapshotHandler_Create(t *testing.T) {
	s := newTestStore(t)

	t.Run("saves through controller", func(t *testing.T) {
		handler := NewSnapshotHandler(s, &fakeController{store: s})
		rec := do(handler, http.MethodPost, "/api/snapshots")

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}
		var response snapshotResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if response.ID == "" || response.Color != "green" {
			t.Errorf("unexpected response: %+v", response)
		}
	})

	t.Run("no controller", func(t *testing.T) {
		rec := do(NewSnapshotHandler(s, nil), http.MethodPost, "/api/snapshots")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})

	t.Run("loop stopped", func(t *testing.T) {
		handler := NewSnapshotHandler(s, &fakeController{store: s, err: ErrUnavailable})
		rec := do(handler, http.MethodPost, "/api/snapshots")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})

	t.Run("loop timed out", func(t *testing.T) {
		handler := NewSnapshotHandler(s, &fakeController{store: s, err: context.DeadlineExceeded})
		rec := do(handler, http.MethodPost, "/api/snapshots")
		if rec.Code != http.StatusGatewayTimeout {
			t.Errorf("expected status %d, got %d", http.StatusGatewayTimeout, rec.Code)
		}
	})
}

func TestSnapshotHandler_GetAndDelete(t *testing.T) {
	s := newTestStore(t)
	snap := seed(t, s)
	handler := NewSnapshotHandler(s, nil)

	rec := do(handler, http.MethodGet, "/api/snapshots/"+snap.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response snapshotResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Width != 2 || response.Height != 2 || response.Color != "purple" {
		t.Errorf("unexpected response: %+v", response)
	}

	if rec := do(handler, http.MethodDelete, "/api/snapshots/"+snap.ID); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if rec := do(handler, http.MethodDelete, "/api/snapshots/"+snap.ID); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if rec := do(handler, http.MethodGet, "/api/snapshots/"+snap.ID); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSnapshotHandler_Image(t *testing.T) {
	s := newTestStore(t)
	snap := seed(t, s)
	handler := NewSnapshotHandler(s, nil)

	t.Run("png by default", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/snapshots/"+snap.ID+"/image")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %s, want image/png", ct)
		}
		img, err := png.Decode(rec.Body)
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		r, g, b, a := img.At(0, 0).RGBA()
		if r != 0 || g>>8 != 255 || b != 0 || a>>8 != 255 {
			t.Errorf("pixel (0,0) = %v, want opaque green", img.At(0, 0))
		}
		if _, _, _, a := img.At(1, 1).RGBA(); a != 0 {
			t.Error("unpainted pixel should be transparent")
		}
	})

	t.Run("bmp", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/snapshots/"+snap.ID+"/image?format=bmp")
		if ct := rec.Header().Get("Content-Type"); ct != "image/bmp" {
			t.Errorf("Content-Type = %s, want image/bmp", ct)
		}
		if _, err := bmp.Decode(rec.Body); err != nil {
			t.Errorf("bmp.Decode() error = %v", err)
		}
	})

	t.Run("tiff", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/snapshots/"+snap.ID+"/image?format=tiff")
		if ct := rec.Header().Get("Content-Type"); ct != canvas.ContentType(canvas.FormatTIFF) {
			t.Errorf("Content-Type = %s, want image/tiff", ct)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/snapshots/"+snap.ID+"/image?format=gif")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/snapshots/nope/image")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSnapshotHandler_Restore(t *testing.T) {
	s := newTestStore(t)
	snap := seed(t, s)
	control := &fakeController{store: s}
	handler := NewSnapshotHandler(s, control)

	rec := do(handler, http.MethodPost, "/api/snapshots/"+snap.ID+"/restore")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if control.restored == nil || control.restored.ID != snap.ID {
		t.Errorf("controller restored %+v, want %s", control.restored, snap.ID)
	}

	control.err = canvas.ErrSizeMismatch
	if rec := do(handler, http.MethodPost, "/api/snapshots/"+snap.ID+"/restore"); rec.Code != http.StatusConflict {
		t.Errorf("size mismatch expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestSnapshotHandler_Routing(t *testing.T) {
	handler := NewSnapshotHandler(newTestStore(t), nil)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPut, "/api/snapshots", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/snapshots/x", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/snapshots/x/image", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/snapshots/x/restore", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/snapshots/x/thumbnail", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			if rec := do(handler, tt.method, tt.target); rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCanvasHandler(t *testing.T) {
	control := &fakeController{}
	handler := NewCanvasHandler(control)

	rec := do(handler, http.MethodPost, "/api/canvas/clear")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if control.clears != 1 {
		t.Errorf("clears = %d, want 1", control.clears)
	}

	if rec := do(handler, http.MethodGet, "/api/canvas/clear"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	if rec := do(NewCanvasHandler(nil), http.MethodPost, "/api/canvas/clear"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("nil controller expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}
