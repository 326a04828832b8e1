//go:build integration

// Package dbassert reads stored runs straight from PostgreSQL and MongoDB so
// tests can check what the results stores actually wrote.
package dbassert

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// RunRow mirrors a stored run. Scenarios are decoded generically so the
// assertion does not depend on the Go types that wrote them.
type RunRow struct {
	ID         string
	StartedAt  time.Time
	DurationMS int64
	BaseURL    string
	Passed     int
	Failed     int
	Broken     int
	Scenarios  []map[string]any
}

// ExpectedRun contains expected values for run assertions.
// Zero values are not checked, allowing partial matching.
type ExpectedRun struct {
	BaseURL   string
	Passed    int
	Failed    int
	Broken    int
	Scenarios []string
}

// QueryRunPostgreSQL reads one run by ID from PostgreSQL.
func QueryRunPostgreSQL(t *testing.T, pool *pgxpool.Pool, id string) RunRow {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		row       RunRow
		scenarios []byte
	)
	err := pool.QueryRow(ctx, `
		SELECT id::text, started_at, duration_ms, base_url, passed, failed, broken, scenarios
		FROM runs WHERE id = $1`, id).
		Scan(&row.ID, &row.StartedAt, &row.DurationMS, &row.BaseURL, &row.Passed, &row.Failed, &row.Broken, &scenarios)
	require.NoError(t, err, "run %s not found in PostgreSQL", id)
	require.NoError(t, json.Unmarshal(scenarios, &row.Scenarios))
	return row
}

// QueryRunMongoDB reads one run by ID from MongoDB.
func QueryRunMongoDB(t *testing.T, db *mongo.Database, id string) RunRow {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc bson.M
	err := db.Collection("runs").FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	require.NoError(t, err, "run %s not found in MongoDB", id)

	raw, err := bson.MarshalExtJSON(doc, false, false)
	require.NoError(t, err)

	var decoded struct {
		ID         string           `json:"_id"`
		DurationMS int64            `json:"duration_ms"`
		BaseURL    string           `json:"base_url"`
		Passed     int              `json:"passed"`
		Failed     int              `json:"failed"`
		Broken     int              `json:"broken"`
		Scenarios  []map[string]any `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	row := RunRow{
		ID:         decoded.ID,
		DurationMS: decoded.DurationMS,
		BaseURL:    decoded.BaseURL,
		Passed:     decoded.Passed,
		Failed:     decoded.Failed,
		Broken:     decoded.Broken,
		Scenarios:  decoded.Scenarios,
	}
	if ts, ok := doc["started_at"].(bson.DateTime); ok {
		row.StartedAt = ts.Time().UTC()
	}
	return row
}

// AssertRun checks a stored run against expected values.
func AssertRun(t *testing.T, row RunRow, expected ExpectedRun) {
	t.Helper()

	assert.NotEmpty(t, row.ID, "ID should be populated")
	assert.False(t, row.StartedAt.IsZero(), "StartedAt should be populated")

	if expected.BaseURL != "" {
		assert.Equal(t, expected.BaseURL, row.BaseURL, "BaseURL mismatch")
	}
	assert.Equal(t, expected.Passed, row.Passed, "Passed mismatch")
	assert.Equal(t, expected.Failed, row.Failed, "Failed mismatch")
	assert.Equal(t, expected.Broken, row.Broken, "Broken mismatch")

	if len(expected.Scenarios) > 0 {
		names := make([]string, 0, len(row.Scenarios))
		for _, s := range row.Scenarios {
			name, _ := s["name"].(string)
			names = append(names, name)
		}
		assert.Equal(t, expected.Scenarios, names, "scenario order mismatch")
	}
}
