// Package integration verifies that run history lands in real databases.
// PostgreSQL and MongoDB are started with testcontainers.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
