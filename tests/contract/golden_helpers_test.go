//go:build contract

package contract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const goldenOutputDir = "golden"

func shouldRecordGoldenOutputs() bool {
	return os.Getenv("RECORD") == "1" || os.Getenv("UPDATE_GOLDEN") == "1"
}

func compareGoldenJSON(t *testing.T, path string, value any) {
	t.Helper()

	actual := mustMarshalNormalizedJSON(t, value)
	fullPath := filepath.Join(testdataDir, goldenOutputDir, path)

	if shouldRecordGoldenOutputs() {
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, actual, 0644))
	}

	expected, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		t.Fatalf("missing golden file %s; run `RECORD=1 go test -tags=contract ./tests/contract/...`", filepath.Join(goldenOutputDir, path))
	}
	require.NoError(t, err)

	require.JSONEq(t, string(expected), string(actual), "golden mismatch for %s", filepath.Join(goldenOutputDir, path))
}

func mustMarshalNormalizedJSON(t *testing.T, value any) []byte {
	t.Helper()

	raw, err := json.Marshal(value)
	require.NoError(t, err)

	var generic any
	require.NoError(t, json.Unmarshal(raw, &generic))

	out, err := json.MarshalIndent(normalizeGoldenValue(generic), "", "  ")
	require.NoError(t, err)
	return append(out, '\n')
}

// normalizeGoldenValue blanks values that differ between recordings: session
// tokens, expiry timestamps and generated IDs.
func normalizeGoldenValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			switch strings.ToLower(key) {
			case "token":
				out[key] = "<token>"
				continue
			case "expires_at":
				out[key] = "<timestamp>"
				continue
			}
			out[key] = normalizeGoldenValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeGoldenValue(item)
		}
		return out
	case string:
		return normalizeGeneratedID(val)
	default:
		return v
	}
}

func normalizeGeneratedID(id string) string {
	if strings.HasPrefix(id, "t-") {
		if _, err := uuid.Parse(strings.TrimPrefix(id, "t-")); err == nil {
			return "t-<generated>"
		}
	}
	if _, err := uuid.Parse(id); err == nil {
		return "<generated>"
	}
	return id
}
