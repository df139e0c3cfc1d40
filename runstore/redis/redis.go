// Package redis provides a Redis-backed snapshot store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/illation/wikisearch/runstore"
)

// RedisStore implements runstore.Store using Redis. Snapshots live under
// one key each, with a per-run set indexing them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ runstore.Store = (*RedisStore)(nil)

// Options configuration for the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "wikisearch:"
	TTL      time.Duration // Expiration for snapshots, default 0 (no expiration)
}

// NewRedisStore creates a new Redis snapshot store.
func NewRedisStore(opts Options) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "wikisearch:"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisStore) snapshotKey(id string) string {
	return fmt.Sprintf("%ssnapshot:%s", s.prefix, id)
}

func (s *RedisStore) runKey(runID string) string {
	return fmt.Sprintf("%srun:%s:snapshots", s.prefix, runID)
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save stores a snapshot and indexes it under its run.
func (s *RedisStore) Save(ctx context.Context, snapshot *runstore.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.snapshotKey(snapshot.ID), data, s.ttl)

	if snapshot.RunID != "" {
		runKey := s.runKey(snapshot.RunID)
		pipe.SAdd(ctx, runKey, snapshot.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, runKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by ID.
func (s *RedisStore) Load(ctx context.Context, snapshotID string) (*runstore.Snapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(snapshotID)).Bytes()
	if err == redis.Nil {
		return nil, runstore.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}

	var snapshot runstore.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns all snapshots for a run, oldest first.
func (s *RedisStore) List(ctx context.Context, runID string) ([]*runstore.Snapshot, error) {
	snapshotIDs, err := s.client.SMembers(ctx, s.runKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for run %s: %w", runID, err)
	}
	if len(snapshotIDs) == 0 {
		return []*runstore.Snapshot{}, nil
	}

	keys := make([]string, 0, len(snapshotIDs))
	for _, id := range snapshotIDs {
		keys = append(keys, s.snapshotKey(id))
	}

	// MGet returns nil for expired members, which are skipped.
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}

	var snapshots []*runstore.Snapshot
	for _, result := range results {
		strData, ok := result.(string)
		if !ok {
			continue
		}
		var snapshot runstore.Snapshot
		if err := json.Unmarshal([]byte(strData), &snapshot); err != nil {
			continue
		}
		snapshots = append(snapshots, &snapshot)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// Latest returns the most recent snapshot for a run.
func (s *RedisStore) Latest(ctx context.Context, runID string) (*runstore.Snapshot, error) {
	snapshots, err := s.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, runstore.ErrSnapshotNotFound
	}
	return snapshots[len(snapshots)-1], nil
}

// Delete removes a snapshot and its run index entry.
func (s *RedisStore) Delete(ctx context.Context, snapshotID string) error {
	snapshot, err := s.Load(ctx, snapshotID)
	if err == runstore.ErrSnapshotNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.snapshotKey(snapshotID))
	if snapshot.RunID != "" {
		pipe.SRem(ctx, s.runKey(snapshot.RunID), snapshotID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a run.
func (s *RedisStore) Clear(ctx context.Context, runID string) error {
	runKey := s.runKey(runID)
	snapshotIDs, err := s.client.SMembers(ctx, runKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get snapshots for clearing: %w", err)
	}
	if len(snapshotIDs) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range snapshotIDs {
		pipe.Del(ctx, s.snapshotKey(id))
	}
	pipe.Del(ctx, runKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
