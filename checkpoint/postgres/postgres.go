// Package postgres provides a checkpoint store backed by PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/agentcore/checkpoint"
)

// DBPool defines the interface for the database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements checkpoint.Store using PostgreSQL
type PostgresStore struct {
	pool      DBPool
	tableName string
}

var _ checkpoint.Store = (*PostgresStore)(nil)

// PostgresOptions configuration for the Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "checkpoints"
}

// NewPostgresStore creates a new Postgres checkpoint store
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}

	return &PostgresStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewPostgresStoreWithPool creates a Postgres checkpoint store with an
// existing pool. Useful for testing with mocks.
func NewPostgresStoreWithPool(pool DBPool, tableName string) *PostgresStore {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &PostgresStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the checkpoint table if it doesn't exist
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			step TEXT NOT NULL,
			state JSONB NOT NULL,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			version INTEGER NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_%s_workflow_id ON %s (workflow_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save stores a checkpoint, replacing any previous version with the
// same ID
func (s *PostgresStore) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	metadataJSON, err := json.Marshal(cp.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, step, state, metadata, timestamp, version, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			workflow_id = EXCLUDED.workflow_id,
			step = EXCLUDED.step,
			state = EXCLUDED.state,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp,
			version = EXCLUDED.version,
			completed = EXCLUDED.completed
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		cp.ID,
		cp.WorkflowID,
		cp.Step,
		stateJSON,
		metadataJSON,
		cp.Timestamp,
		cp.Version,
		cp.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (s *PostgresStore) Load(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, step, state, metadata, timestamp, version, completed
		FROM %s
		WHERE id = $1
	`, s.tableName)

	return s.scanRow(s.pool.QueryRow(ctx, query, id), id)
}

// Latest returns the most recent checkpoint for a workflow
func (s *PostgresStore) Latest(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, step, state, metadata, timestamp, version, completed
		FROM %s
		WHERE workflow_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, s.tableName)

	return s.scanRow(s.pool.QueryRow(ctx, query, workflowID), workflowID)
}

// List returns all checkpoints for a workflow, oldest first
func (s *PostgresStore) List(ctx context.Context, workflowID string) ([]*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, step, state, metadata, timestamp, version, completed
		FROM %s
		WHERE workflow_id = $1
		ORDER BY timestamp ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*checkpoint.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows.Scan)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoint rows: %w", err)
	}
	return checkpoints, nil
}

// Delete removes a checkpoint
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes all checkpoints for a workflow
func (s *PostgresStore) Clear(ctx context.Context, workflowID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE workflow_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, workflowID); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanRow(row pgx.Row, key string) (*checkpoint.Checkpoint, error) {
	cp, err := scanCheckpoint(row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", checkpoint.ErrNotFound, key)
		}
		return nil, err
	}
	return cp, nil
}

// scanCheckpoint reads one checkpoint row via the given scan function
func scanCheckpoint(scan func(dest ...any) error) (*checkpoint.Checkpoint, error) {
	var cp checkpoint.Checkpoint
	var stateJSON []byte
	var metadataJSON []byte

	err := scan(
		&cp.ID,
		&cp.WorkflowID,
		&cp.Step,
		&stateJSON,
		&metadataJSON,
		&cp.Timestamp,
		&cp.Version,
		&cp.Completed,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &cp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &cp, nil
}
