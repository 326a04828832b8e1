//go:build e2e

package e2e

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"contractcheck/internal/apiclient"
	"contractcheck/internal/contract"
	"contractcheck/internal/scenario"
)

// newRunner builds a runner against baseURL with the demo credentials.
func newRunner(t *testing.T, baseURL string, registry *contract.Registry, opts ...scenario.Option) *scenario.Runner {
	t.Helper()

	client := apiclient.New(apiclient.Config{BaseURL: baseURL, Timeout: 5 * time.Second})
	opts = append([]scenario.Option{
		scenario.WithVariables(map[string]string{
			"username": demoUsername,
			"password": demoPassword,
		}),
		scenario.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return scenario.NewRunner(client, registry, opts...)
}

// readMetricsFile returns the textfile written by Metrics.WriteTextfile.
func readMetricsFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// closeBody is a helper to close response body in defer statements.
func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
