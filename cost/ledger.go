package cost

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is a durable record of LLM usage backed by SQLite. The
// in-memory Tracker answers live queries; the ledger survives
// restarts and feeds billing and audits.
type Ledger struct {
	db *sql.DB
}

// NewLedger opens (or creates) a ledger database at the given path
// and ensures the schema exists. Use ":memory:" for an ephemeral
// ledger.
func NewLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		request_id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		model TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		cached_tokens INTEGER NOT NULL,
		team_id TEXT,
		project_id TEXT,
		workflow_id TEXT,
		user_id TEXT,
		cost_usd REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_team ON usage_records(team_id);
	CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_records(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Append writes a usage record to the ledger
func (l *Ledger) Append(ctx context.Context, record *UsageRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage_records
		(request_id, timestamp, model, input_tokens, output_tokens, cached_tokens, team_id, project_id, workflow_id, user_id, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RequestID,
		record.Timestamp,
		record.Model,
		record.InputTokens,
		record.OutputTokens,
		record.CachedTokens,
		record.TeamID,
		record.ProjectID,
		record.WorkflowID,
		record.UserID,
		record.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// Query returns a team's records since the given time, oldest first.
// An empty teamID returns records for every team.
func (l *Ledger) Query(ctx context.Context, teamID string, since time.Time) ([]*UsageRecord, error) {
	query := `
		SELECT request_id, timestamp, model, input_tokens, output_tokens, cached_tokens, team_id, project_id, workflow_id, user_id, cost_usd
		FROM usage_records
		WHERE timestamp >= ?`
	args := []any{since}
	if teamID != "" {
		query += " AND team_id = ?"
		args = append(args, teamID)
	}
	query += " ORDER BY timestamp ASC"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var records []*UsageRecord
	for rows.Next() {
		var r UsageRecord
		if err := rows.Scan(
			&r.RequestID,
			&r.Timestamp,
			&r.Model,
			&r.InputTokens,
			&r.OutputTokens,
			&r.CachedTokens,
			&r.TeamID,
			&r.ProjectID,
			&r.WorkflowID,
			&r.UserID,
			&r.CostUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger rows: %w", err)
	}
	return records, nil
}

// TotalCost sums a team's spend since the given time
func (l *Ledger) TotalCost(ctx context.Context, teamID string, since time.Time) (float64, error) {
	var total sql.NullFloat64
	err := l.db.QueryRowContext(ctx, `
		SELECT SUM(cost_usd) FROM usage_records WHERE team_id = ? AND timestamp >= ?`,
		teamID, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger costs: %w", err)
	}
	return total.Float64, nil
}

// Close releases the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}
