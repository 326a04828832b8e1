package observability

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	m.ObserveScenario("passed")
	m.ObserveScenario("passed")
	m.ObserveScenario("failed")
	m.ObserveViolation("bank_account")
	m.ObserveStep("passed", 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scenarios.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scenarios.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations.WithLabelValues("bank_account")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.steps))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveScenario("broken")
	m.ObserveRun(time.Unix(1700000000, 0), 2*time.Second)

	path := filepath.Join(t.TempDir(), "contractcheck.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `contractcheck_scenarios_total{outcome="broken"} 1`)
	assert.Contains(t, out, "contractcheck_last_run_duration_seconds 2")
}

func TestMetrics_WriteTextfileBadPath(t *testing.T) {
	err := NewMetrics().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}

func TestServerMetrics_Handler(t *testing.T) {
	s := NewServerMetrics()
	s.ObserveRequest(http.MethodGet, "/api/profile", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `mockbank_http_requests_total{code="200",method="GET",route="/api/profile"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
