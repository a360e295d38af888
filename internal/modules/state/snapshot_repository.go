package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists state snapshots in sqlite, msgpack-encoded.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// SnapshotRecord is a stored snapshot with its metadata.
type SnapshotRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSnapshotRepository creates the repository and its table if missing.
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) (*SnapshotRepository, error) {
	r := &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		payload BLOB NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return r, nil
}

// Save stores a snapshot under id, replacing any previous payload.
func (r *SnapshotRepository) Save(id string, snap domain.StateSnapshot) error {
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", id, err)
	}

	_, err = r.db.Exec(
		`INSERT INTO snapshots (id, created_at, payload) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload`,
		id, time.Now().UTC(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", id, err)
	}

	r.log.Debug().Str("snapshot_id", id).Int("bytes", len(payload)).Msg("Snapshot saved")
	return nil
}

// Load retrieves the snapshot stored under id.
func (r *SnapshotRepository) Load(id string) (domain.StateSnapshot, error) {
	var payload []byte
	err := r.db.QueryRow(`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.StateSnapshot{}, fmt.Errorf("no snapshot stored under %q", id)
	}
	if err != nil {
		return domain.StateSnapshot{}, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}

	var snap domain.StateSnapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return domain.StateSnapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return snap, nil
}

// List returns stored snapshot metadata, newest first.
func (r *SnapshotRepository) List() ([]SnapshotRecord, error) {
	rows, err := r.db.Query(`SELECT id, created_at FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return records, nil
}

// Delete removes the snapshot stored under id.
func (r *SnapshotRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}
