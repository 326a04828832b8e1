// Package results persists the outcome of check runs so that regressions
// can be compared across runs.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"contractcheck/internal/scenario"
	"contractcheck/internal/storage"
)

// StepRecord is the stored outcome of one step.
type StepRecord struct {
	Name       string `json:"name" bson:"name"`
	Status     string `json:"status" bson:"status"`
	StatusCode int    `json:"status_code,omitempty" bson:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms" bson:"duration_ms"`
	Error      string `json:"error,omitempty" bson:"error,omitempty"`
}

// ScenarioRecord is the stored outcome of one scenario.
type ScenarioRecord struct {
	Name       string       `json:"name" bson:"name"`
	Status     string       `json:"status" bson:"status"`
	DurationMS int64        `json:"duration_ms" bson:"duration_ms"`
	Steps      []StepRecord `json:"steps" bson:"steps"`
	// Fingerprint is the xxhash of the last response body, empty when no
	// response was received
	Fingerprint string `json:"fingerprint,omitempty" bson:"fingerprint,omitempty"`
}

// Run is one invocation of the suite.
type Run struct {
	ID         string           `json:"id" bson:"_id"`
	StartedAt  time.Time        `json:"started_at" bson:"started_at"`
	DurationMS int64            `json:"duration_ms" bson:"duration_ms"`
	BaseURL    string           `json:"base_url" bson:"base_url"`
	Passed     int              `json:"passed" bson:"passed"`
	Failed     int              `json:"failed" bson:"failed"`
	Broken     int              `json:"broken" bson:"broken"`
	Scenarios  []ScenarioRecord `json:"scenarios" bson:"scenarios"`
}

// Store persists runs. Implementations must be safe for concurrent use.
type Store interface {
	// WriteRun stores a finished run
	WriteRun(ctx context.Context, run *Run) error
	// RecentRuns returns up to limit runs, newest first
	RecentRuns(ctx context.Context, limit int) ([]*Run, error)
	// Close releases store resources; the underlying storage stays open
	Close() error
}

// New creates the results store for an open storage backend.
func New(ctx context.Context, store storage.Storage) (Store, error) {
	switch store.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(ctx, store.SQLiteDB())
	case storage.TypePostgreSQL:
		return NewPostgreSQLStore(ctx, store.PostgreSQLPool())
	case storage.TypeMongoDB:
		return NewMongoDBStore(ctx, store.MongoDatabase())
	default:
		return nil, fmt.Errorf("unsupported storage type for results: %s", store.Type())
	}
}

// Fingerprint hashes a response body. Two runs returning identical bodies
// have identical fingerprints.
func Fingerprint(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(body))
}

// NewRun converts a suite report into a storable run with a fresh ID.
func NewRun(report *scenario.Report, baseURL string) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		StartedAt:  report.StartedAt.UTC(),
		DurationMS: report.Duration.Milliseconds(),
		BaseURL:    baseURL,
		Passed:     report.Passed,
		Failed:     report.Failed,
		Broken:     report.Broken,
		Scenarios:  make([]ScenarioRecord, 0, len(report.Results)),
	}

	for _, res := range report.Results {
		rec := ScenarioRecord{
			Name:        res.Scenario,
			Status:      string(res.Status),
			DurationMS:  res.Duration.Milliseconds(),
			Steps:       make([]StepRecord, 0, len(res.Steps)),
			Fingerprint: Fingerprint(res.LastBody()),
		}
		for _, st := range res.Steps {
			rec.Steps = append(rec.Steps, StepRecord{
				Name:       st.Name,
				Status:     string(st.Status),
				StatusCode: st.StatusCode,
				DurationMS: st.Duration.Milliseconds(),
				Error:      st.Error,
			})
		}
		run.Scenarios = append(run.Scenarios, rec)
	}
	return run
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 20
	}
	return limit
}
