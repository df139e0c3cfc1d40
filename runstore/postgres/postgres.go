// Package postgres provides a PostgreSQL-backed snapshot store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/illation/wikisearch/runstore"
)

// DBPool defines the interface for the database connection pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements runstore.Store using PostgreSQL.
type PostgresStore struct {
	pool      DBPool
	tableName string
}

var _ runstore.Store = (*PostgresStore)(nil)

// Options configuration for the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // Default "run_snapshots"
}

// NewPostgresStore creates a new Postgres snapshot store.
func NewPostgresStore(ctx context.Context, opts Options) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "run_snapshots"
	}

	return &PostgresStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewPostgresStoreWithPool creates a new Postgres snapshot store with an
// existing pool. Useful for testing with mocks.
func NewPostgresStoreWithPool(pool DBPool, tableName string) *PostgresStore {
	if tableName == "" {
		tableName = "run_snapshots"
	}
	return &PostgresStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			person TEXT NOT NULL,
			node_name TEXT NOT NULL,
			state JSONB NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			version INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save stores a snapshot.
func (s *PostgresStore) Save(ctx context.Context, snapshot *runstore.Snapshot) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, person, node_name, state, timestamp, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			person = EXCLUDED.person,
			node_name = EXCLUDED.node_name,
			state = EXCLUDED.state,
			timestamp = EXCLUDED.timestamp,
			version = EXCLUDED.version
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.RunID,
		snapshot.Person,
		snapshot.NodeName,
		[]byte(snapshot.State),
		snapshot.Timestamp,
		snapshot.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by ID.
func (s *PostgresStore) Load(ctx context.Context, snapshotID string) (*runstore.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, person, node_name, state, timestamp, version
		FROM %s
		WHERE id = $1
	`, s.tableName)

	snapshot, err := scanSnapshot(s.pool.QueryRow(ctx, query, snapshotID))
	if err == pgx.ErrNoRows {
		return nil, runstore.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snapshot, nil
}

// List returns all snapshots for a run, oldest first.
func (s *PostgresStore) List(ctx context.Context, runID string) ([]*runstore.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, person, node_name, state, timestamp, version
		FROM %s
		WHERE run_id = $1
		ORDER BY timestamp ASC, version ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*runstore.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return snapshots, nil
}

// Latest returns the most recent snapshot for a run.
func (s *PostgresStore) Latest(ctx context.Context, runID string) (*runstore.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, person, node_name, state, timestamp, version
		FROM %s
		WHERE run_id = $1
		ORDER BY timestamp DESC, version DESC
		LIMIT 1
	`, s.tableName)

	snapshot, err := scanSnapshot(s.pool.QueryRow(ctx, query, runID))
	if err == pgx.ErrNoRows {
		return nil, runstore.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return snapshot, nil
}

// Delete removes a snapshot.
func (s *PostgresStore) Delete(ctx context.Context, snapshotID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, snapshotID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a run.
func (s *PostgresStore) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*runstore.Snapshot, error) {
	var snapshot runstore.Snapshot
	var stateJSON []byte

	err := row.Scan(
		&snapshot.ID,
		&snapshot.RunID,
		&snapshot.Person,
		&snapshot.NodeName,
		&stateJSON,
		&snapshot.Timestamp,
		&snapshot.Version,
	)
	if err != nil {
		return nil, err
	}
	snapshot.State = stateJSON
	return &snapshot, nil
}
