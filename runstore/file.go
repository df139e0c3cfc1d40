package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore writes each snapshot to its own JSON file under a root
// directory, grouped by run ID. Human-inspectable and dependency-free.
type FileStore struct {
	root string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed snapshot store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

func (s *FileStore) snapshotPath(snapshotID string) string {
	return filepath.Join(s.root, snapshotID+".json")
}

// Save stores a snapshot.
func (s *FileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(snapshot.ID), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by ID.
func (s *FileStore) Load(ctx context.Context, snapshotID string) (*Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(snapshotID))
	if os.IsNotExist(err) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns all snapshots for a run, oldest first.
func (s *FileStore) List(ctx context.Context, runID string) ([]*Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	var snapshots []*Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		snapshot, err := s.Load(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if snapshot.RunID == runID {
			snapshots = append(snapshots, snapshot)
		}
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// Latest returns the most recent snapshot for a run.
func (s *FileStore) Latest(ctx context.Context, runID string) (*Snapshot, error) {
	snapshots, err := s.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return snapshots[len(snapshots)-1], nil
}

// Delete removes a snapshot.
func (s *FileStore) Delete(ctx context.Context, snapshotID string) error {
	err := os.Remove(s.snapshotPath(snapshotID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a run.
func (s *FileStore) Clear(ctx context.Context, runID string) error {
	snapshots, err := s.List(ctx, runID)
	if err != nil {
		return err
	}
	for _, snapshot := range snapshots {
		if err := s.Delete(ctx, snapshot.ID); err != nil {
			return err
		}
	}
	return nil
}
