// Package e2e runs the scenario suite against a live mock bank started in
// TestMain.
//
// Run with: go test -tags=e2e ./tests/e2e/...
package e2e
