//go:build contract

package contract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testdataDir is the path to the testdata directory.
const testdataDir = "testdata"

// loadGoldenFile reads a fixture from testdata and decodes it into generic JSON values.
func loadGoldenFile(t *testing.T, path string) any {
	t.Helper()

	var result any
	err := json.Unmarshal(loadGoldenFileRaw(t, path), &result)
	require.NoError(t, err, "failed to unmarshal golden file %s", path)

	return result
}

// loadGoldenFileRaw reads a fixture from testdata as raw bytes.
func loadGoldenFileRaw(t *testing.T, path string) []byte {
	t.Helper()

	fullPath := filepath.Join(testdataDir, path)
	data, err := os.ReadFile(fullPath)
	require.NoError(t, err, "failed to read golden file %s", fullPath)

	return data
}
