package results

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLStore implements Store for PostgreSQL databases.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the runs table if it doesn't exist.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			base_url TEXT NOT NULL,
			passed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			broken INTEGER NOT NULL DEFAULT 0,
			scenarios JSONB
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)",
		"CREATE INDEX IF NOT EXISTS idx_runs_scenarios_gin ON runs USING GIN (scenarios)",
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// WriteRun inserts a run.
func (s *PostgreSQLStore) WriteRun(ctx context.Context, run *Run) error {
	scenarios, err := json.Marshal(run.Scenarios)
	if err != nil {
		return fmt.Errorf("failed to marshal scenarios: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, base_url, passed, failed, broken, scenarios)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.StartedAt.UTC(), run.DurationMS, run.BaseURL,
		run.Passed, run.Failed, run.Broken, string(scenarios),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *PostgreSQLStore) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, started_at, duration_ms, base_url, passed, failed, broken, scenarios
		FROM runs ORDER BY started_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			r         Run
			scenarios []byte
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.DurationMS, &r.BaseURL, &r.Passed, &r.Failed, &r.Broken, &scenarios); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = r.StartedAt.UTC()
		if len(scenarios) > 0 {
			if err := json.Unmarshal(scenarios, &r.Scenarios); err != nil {
				return nil, fmt.Errorf("run %s: invalid scenarios: %w", r.ID, err)
			}
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// Close is a no-op; the pool is owned by the storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
