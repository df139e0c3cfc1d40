// Package runstore persists per-run state snapshots so that finished and
// in-flight research runs can be inspected and replayed.
package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrSnapshotNotFound is returned when a snapshot ID does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot captures the application state right after a node finished,
// within one research run.
type Snapshot struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	Person    string          `json:"person"`
	NodeName  string          `json:"node_name"`
	State     json.RawMessage `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
}

// Store defines the interface for snapshot persistence.
type Store interface {
	// Save stores a snapshot, overwriting any snapshot with the same ID.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load retrieves a snapshot by ID.
	Load(ctx context.Context, snapshotID string) (*Snapshot, error)

	// List returns all snapshots for a run, oldest first.
	List(ctx context.Context, runID string) ([]*Snapshot, error)

	// Latest returns the most recent snapshot for a run.
	Latest(ctx context.Context, runID string) (*Snapshot, error)

	// Delete removes a snapshot.
	Delete(ctx context.Context, snapshotID string) error

	// Clear removes all snapshots for a run.
	Clear(ctx context.Context, runID string) error
}
