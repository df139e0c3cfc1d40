package runstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps snapshots in process memory. Useful for tests and
// short-lived runs where persistence across restarts is not needed.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*Snapshot
	byRun map[string][]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[string]*Snapshot{},
		byRun: map[string][]string{},
	}
}

// Save stores a snapshot.
func (s *MemoryStore) Save(ctx context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snapshot
	if _, exists := s.byID[snapshot.ID]; !exists {
		s.byRun[snapshot.RunID] = append(s.byRun[snapshot.RunID], snapshot.ID)
	}
	s.byID[snapshot.ID] = &copied
	return nil
}

// Load retrieves a snapshot by ID.
func (s *MemoryStore) Load(ctx context.Context, snapshotID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.byID[snapshotID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	copied := *snapshot
	return &copied, nil
}

// List returns all snapshots for a run, oldest first.
func (s *MemoryStore) List(ctx context.Context, runID string) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byRun[runID]
	snapshots := make([]*Snapshot, 0, len(ids))
	for _, id := range ids {
		if snapshot, ok := s.byID[id]; ok {
			copied := *snapshot
			snapshots = append(snapshots, &copied)
		}
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// Latest returns the most recent snapshot for a run.
func (s *MemoryStore) Latest(ctx context.Context, runID string) (*Snapshot, error) {
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
func (s *MemoryStore) Delete(ctx context.Context, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.byID[snapshotID]
	if !ok {
		return nil
	}
	delete(s.byID, snapshotID)

	ids := s.byRun[snapshot.RunID]
	for i, id := range ids {
		if id == snapshotID {
			s.byRun[snapshot.RunID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all snapshots for a run.
func (s *MemoryStore) Clear(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byRun[runID] {
		delete(s.byID, id)
	}
	delete(s.byRun, runID)
	return nil
}
