// Package sqlite provides a SQLite-backed snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/illation/wikisearch/runstore"
)

// SqliteStore implements runstore.Store using SQLite.
type SqliteStore struct {
	db        *sql.DB
	tableName string
}

var _ runstore.Store = (*SqliteStore)(nil)

// Options configuration for the SQLite connection.
type Options struct {
	Path      string
	TableName string // Default "run_snapshots"
}

// NewSqliteStore creates a new SQLite snapshot store.
func NewSqliteStore(opts Options) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "run_snapshots"
	}

	store := &SqliteStore{
		db:        db,
		tableName: tableName,
	}

	if err := store.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *SqliteStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			person TEXT NOT NULL,
			node_name TEXT NOT NULL,
			state TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			version INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// Save stores a snapshot.
func (s *SqliteStore) Save(ctx context.Context, snapshot *runstore.Snapshot) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, person, node_name, state, timestamp, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			person = excluded.person,
			node_name = excluded.node_name,
			state = excluded.state,
			timestamp = excluded.timestamp,
			version = excluded.version
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.RunID,
		snapshot.Person,
		snapshot.NodeName,
		string(snapshot.State),
		snapshot.Timestamp,
		snapshot.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by ID.
func (s *SqliteStore) Load(ctx context.Context, snapshotID string) (*runstore.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, person, node_name, state, timestamp, version
		FROM %s
		WHERE id = ?
	`, s.tableName)

	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, query, snapshotID))
	if err == sql.ErrNoRows {
		return nil, runstore.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snapshot, nil
}

// List returns all snapshots for a run, oldest first.
func (s *SqliteStore) List(ctx context.Context, runID string) ([]*runstore.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, person, node_name, state, timestamp, version
		FROM %s
		WHERE run_id = ?
		ORDER BY timestamp ASC, version ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, runID)
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
func (s *SqliteStore) Latest(ctx context.Context, runID string) (*runstore.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, person, node_name, state, timestamp, version
		FROM %s
		WHERE run_id = ?
		ORDER BY timestamp DESC, version DESC
		LIMIT 1
	`, s.tableName)

	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, runstore.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return snapshot, nil
}

// Delete removes a snapshot.
func (s *SqliteStore) Delete(ctx context.Context, snapshotID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, snapshotID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a run.
func (s *SqliteStore) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*runstore.Snapshot, error) {
	var snapshot runstore.Snapshot
	var stateJSON string

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
	snapshot.State = []byte(stateJSON)
	return &snapshot, nil
}
