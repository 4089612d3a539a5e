package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// CodecZstdBGRA marks data as zstd-compressed raw BGRA rows.
const CodecZstdBGRA = "zstd-bgra"

// ErrInvalidSnapshot is returned when snapshot dimensions and pixel data
// disagree.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is a saved canvas layer. Data holds uncompressed BGRA pixels,
// Width*Height*4 bytes.
type Snapshot struct {
	ID        string    `json:"id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	Data      []byte    `json:"-"`
}

// SnapshotInfo is a snapshot without its pixels.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Color     string    `json:"color"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create compresses and inserts a snapshot. An empty ID is replaced by a
// new UUID.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.Width <= 0 || snap.Height <= 0 || len(snap.Data) != snap.Width*snap.Height*4 {
		return fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidSnapshot, snap.Width, snap.Height, len(snap.Data))
	}

	enc, _, err := codec()
	if err != nil {
		return fmt.Errorf("init zstd: %w", err)
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.CreatedAt = time.Now().UTC()

	blob := enc.EncodeAll(snap.Data, nil)

	_, err = r.db.Exec(
		`INSERT INTO snapshots (id, width, height, codec, data, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Width, snap.Height, CodecZstdBGRA, blob, snap.Color, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// GetByID retrieves and decompresses a snapshot.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}
	var codecName string
	var blob []byte

	err := r.db.QueryRow(
		`SELECT id, width, height, codec, data, color, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Width, &snap.Height, &codecName, &blob, &snap.Color, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if codecName != CodecZstdBGRA {
		return nil, fmt.Errorf("snapshot %s: unsupported codec %q", id, codecName)
	}

	_, dec, err := codec()
	if err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}

	snap.Data, err = dec.DecodeAll(blob, make([]byte, 0, snap.Width*snap.Height*4))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: decompress: %w", id, err)
	}
	if len(snap.Data) != snap.Width*snap.Height*4 {
		return nil, fmt.Errorf("snapshot %s: %w: got %d bytes", id, ErrInvalidSnapshot, len(snap.Data))
	}

	return snap, nil
}

// List returns snapshot metadata, newest first.
func (r *SnapshotRepository) List() ([]*SnapshotInfo, error) {
	rows, err := r.db.Query(
		`SELECT id, width, height, color, length(data), created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*SnapshotInfo
	for rows.Next() {
		info := &SnapshotInfo{}
		if err := rows.Scan(&info.ID, &info.Width, &info.Height, &info.Color, &info.Size, &info.CreatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return infos, nil
}

// Delete removes a snapshot by its ID.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
