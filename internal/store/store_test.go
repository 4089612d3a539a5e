package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pixels returns w*h BGRA pixels with a diagonal stroke.
func pixels(w, h int) []byte {
	data := make([]byte, w*h*4)
	for i := 0; i < w && i < h; i++ {
		o := (i*w + i) * 4
		copy(data[o:o+4], []byte{255, 0, 255, 255})
	}
	return data
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"snapshots", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap := &Snapshot{Width: 4, Height: 2, Data: pixels(4, 2)}
	if err := s.Snapshots().Create(snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.Snapshots().GetByID(snap.ID); err != nil {
		t.Errorf("snapshot lost after reopen: %v", err)
	}
}

func TestSnapshotRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	data := pixels(64, 32)
	snap := &Snapshot{Width: 64, Height: 32, Color: "blue", Data: data}
	if err := repo.Create(snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if snap.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}

	got, err := repo.GetByID(snap.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Width != 64 || got.Height != 32 || got.Color != "blue" {
		t.Errorf("GetByID() = %dx%d %q, want 64x32 blue", got.Width, got.Height, got.Color)
	}
	if !bytes.Equal(got.Data, data) {
		t.Error("pixel data changed through compression")
	}

	var stored int
	s.DB().QueryRow("SELECT length(data) FROM snapshots WHERE id = ?", snap.ID).Scan(&stored)
	if stored >= len(data) {
		t.Errorf("stored blob = %d bytes, want compressed below %d", stored, len(data))
	}
}

func TestSnapshotRepository_CreateKeepsExplicitID(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	snap := &Snapshot{ID: "fixed-id", Width: 1, Height: 1, Data: make([]byte, 4)}
	if err := repo.Create(snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", snap.ID)
	}

	if err := repo.Create(&Snapshot{ID: "fixed-id", Width: 1, Height: 1, Data: make([]byte, 4)}); err == nil {
		t.Error("duplicate ID should fail")
	}
}

func TestSnapshotRepository_CreateInvalid(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"zero width", &Snapshot{Width: 0, Height: 2, Data: nil}},
		{"short data", &Snapshot{Width: 2, Height: 2, Data: make([]byte, 15)}},
		{"long data", &Snapshot{Width: 2, Height: 2, Data: make([]byte, 17)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(tt.snap); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Create() error = %v, want ErrInvalidSnapshot", err)
			}
		})
	}
}

func TestSnapshotRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotRepository_ListAndDelete(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	if list, err := repo.List(); err != nil || len(list) != 0 {
		t.Fatalf("List() on empty store = %v, %v", list, err)
	}

	var ids []string
	for _, c := range []string{"purple", "green"} {
		snap := &Snapshot{Width: 8, Height: 8, Color: c, Data: pixels(8, 8)}
		if err := repo.Create(snap); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, snap.ID)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var gotIDs []string
	for _, info := range list {
		gotIDs = append(gotIDs, info.ID)
		if info.Size <= 0 {
			t.Errorf("snapshot %s size = %d, want > 0", info.ID, info.Size)
		}
	}
	if diff := cmp.Diff([]string{ids[1], ids[0]}, gotIDs); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}

	if err := repo.Delete(ids[0]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	list, _ = repo.List()
	if len(list) != 1 || list[0].ID != ids[1] {
		t.Errorf("List() after delete = %+v", list)
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingColor); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on unset key error = %v, want ErrNotFound", err)
	}

	if err := repo.Set(SettingColor, "green"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(SettingColor, "eraser"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := repo.Get(SettingColor)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "eraser" {
		t.Errorf("Get() = %q, want eraser", got)
	}
}
