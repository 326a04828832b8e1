// Package main provides a CLI tool to record real API responses for contract tests.
// Usage:
//
//	BASE_URL=http://localhost:8089 go run ./cmd/recordapi \
//	  -endpoint=account \
//	  -output=tests/contract/testdata/mockbank/account.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"contractcheck/config"
	"contractcheck/internal/apiclient"
	"contractcheck/internal/contract"
	"contractcheck/internal/core"
)

// Endpoint configurations
var endpointConfigs = map[string]struct {
	path     string
	method   string
	auth     bool
	contract string
}{
	"login": {
		path:     "/api/login",
		method:   http.MethodPost,
		contract: contract.LoginContract,
	},
	"profile": {
		path:     "/api/profile",
		method:   http.MethodGet,
		auth:     true,
		contract: contract.ProfileContract,
	},
	"account": {
		path:     "/api/accounts/%s",
		method:   http.MethodGet,
		auth:     true,
		contract: contract.BankAccountContract,
	},
	"health": {
		path:   "/health",
		method: http.MethodGet,
	},
}

func main() {
	endpoint := flag.String("endpoint", "account", "Endpoint to record (login, profile, account, health)")
	output := flag.String("output", "", "Output file path (required)")
	accountID := flag.String("account", "AC1", "Account ID for the account endpoint")
	flag.Parse()

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -output flag is required")
		flag.Usage()
		os.Exit(1)
	}

	eConfig, ok := endpointConfigs[*endpoint]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown endpoint %q\n", *endpoint)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:   cfg.Target.BaseURL,
		AuthToken: cfg.Target.AuthToken,
		Timeout:   60 * time.Second,
	})
	ctx := context.Background()
	credentials := map[string]string{
		"username": cfg.Target.LoginUsername,
		"password": cfg.Target.LoginPassword,
	}

	req := apiclient.Request{Method: eConfig.method, Path: eConfig.path, NoAuth: !eConfig.auth}
	if *endpoint == "account" {
		req.Path = fmt.Sprintf(eConfig.path, *accountID)
	}
	if *endpoint == "login" {
		req.Body = credentials
	}

	// Log in first unless a token is configured
	if eConfig.auth && cfg.Target.AuthToken == "" {
		token, err := login(ctx, client, credentials)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error logging in: %v\n", err)
			os.Exit(1)
		}
		req.Token = token
	}

	fmt.Printf("Sending request to %s %s%s...\n", req.Method, client.BaseURL(), req.Path)
	resp, err := client.Do(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Response status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))

	// Pretty print JSON
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, resp.Body, "", "  "); err != nil {
		if err := writeOutput(*output, resp.Body); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Raw response saved to %s\n", *output)
		return
	}
	prettyJSON.WriteByte('\n')

	if err := writeOutput(*output, prettyJSON.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Response saved to %s\n", *output)

	if eConfig.contract == "" || resp.StatusCode >= 300 {
		return
	}
	schema, err := contract.NewRegistry().Lookup(eConfig.contract)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := contract.ValidateJSON(resp.Body, "", schema); err != nil {
		fmt.Printf("Warning: recorded response does not satisfy %s: %v\n", eConfig.contract, err)
		return
	}
	fmt.Printf("Response satisfies contract %s\n", eConfig.contract)
}

func login(ctx context.Context, client *apiclient.Client, credentials map[string]string) (string, error) {
	resp, err := client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/login",
		Body:   credentials,
		NoAuth: true,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", core.ParseAPIError("POST /api/login", resp.StatusCode, resp.Body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// writeOutput writes data to the output file, creating directories as needed.
func writeOutput(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
