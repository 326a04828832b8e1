// Package contract holds contract tests that check the built-in bank contracts
// and scenarios against recorded responses. Responses are replayed from
// testdata, so no server is required.
//
// Run with: go test -tags=contract ./tests/contract/...
package contract
