package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// sqliteTimeLayout is fixed width so started_at sorts chronologically as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the runs table if it doesn't exist.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			base_url TEXT NOT NULL,
			passed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			broken INTEGER NOT NULL DEFAULT 0,
			scenarios JSON
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	if _, err := db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)"); err != nil {
		slog.Warn("failed to create index", "error", err)
	}

	return &SQLiteStore{db: db}, nil
}

// WriteRun inserts a run.
func (s *SQLiteStore) WriteRun(ctx context.Context, run *Run) error {
	scenarios, err := json.Marshal(run.Scenarios)
	if err != nil {
		return fmt.Errorf("failed to marshal scenarios: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, base_url, passed, failed, broken, scenarios)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(sqliteTimeLayout),
		run.DurationMS,
		run.BaseURL,
		run.Passed,
		run.Failed,
		run.Broken,
		string(scenarios),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, base_url, passed, failed, broken, scenarios
		FROM runs ORDER BY started_at DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			r         Run
			startedAt string
			scenarios sql.NullString
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.DurationMS, &r.BaseURL, &r.Passed, &r.Failed, &r.Broken, &scenarios); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(sqliteTimeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("run %s: invalid started_at %q: %w", r.ID, startedAt, err)
		}
		if scenarios.Valid {
			if err := json.Unmarshal([]byte(scenarios.String), &r.Scenarios); err != nil {
				return nil, fmt.Errorf("run %s: invalid scenarios: %w", r.ID, err)
			}
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// Close is a no-op; the database is owned by the storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
