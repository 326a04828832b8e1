// Package apiclient provides the HTTP client used by checks against the target API:
// - Base URL joining and JSON request bodies
// - Bearer token authentication with per-request overrides
// - Opt-in retries with exponential backoff (429, 502, 503, 504, network errors)
// - Transparent gzip/deflate/br response decoding
package apiclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"contractcheck/internal/core"
	"contractcheck/internal/httpclient"
)

// maxBodySize bounds both raw and decompressed response bodies.
const maxBodySize = 10 * 1024 * 1024

// Config holds configuration for the API client
type Config struct {
	// BaseURL is the target API base URL, e.g. https://bank.example.com
	BaseURL string

	// AuthToken is sent as a Bearer token when non-empty
	AuthToken string

	// Timeout bounds a single call including retries (default: 30s)
	Timeout time.Duration

	// Retry configuration. MaxRetries defaults to 0: checks are single-shot.
	MaxRetries     int
	InitialBackoff time.Duration // default: 200ms
	MaxBackoff     time.Duration // default: 5s
	BackoffFactor  float64       // default: 2.0
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = httpclient.DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 2.0
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Client issues requests against a single base URL
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a client with a pooled transport sized by cfg.Timeout
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	hc := httpclient.ConfigWithTimeout(cfg.Timeout)
	return &Client{
		httpClient: httpclient.NewHTTPClient(&hc),
		config:     cfg,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client
func NewWithHTTPClient(httpClient *http.Client, cfg Config) *Client {
	return &Client{
		httpClient: httpClient,
		config:     cfg.withDefaults(),
	}
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request represents an HTTP request to be made
type Request struct {
	Method string
	// Path is joined to the base URL; absolute http(s) URLs are used as-is
	Path    string
	Headers map[string]string
	// Body is sent raw when it is a string or []byte, JSON-encoded otherwise
	Body any
	// Token overrides the configured AuthToken for this request
	Token string
	// NoAuth suppresses the Authorization header
	NoAuth bool
}

// Response is a fully read, decoded HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// JSON decodes the body into generic Go values
func (r *Response) JSON() (any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return v, nil
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Do executes a request, retrying retryable outcomes up to MaxRetries times.
// Any HTTP status is returned as a Response; only failures to obtain one are errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var (
		lastErr  error
		lastResp *Response
	)
	maxAttempts := c.config.MaxRetries + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return c.giveUp(req, lastResp, lastErr, ctx.Err())
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err != nil {
			lastErr = err
			lastResp = nil
			continue
		}
		if isRetryable(resp.StatusCode) {
			lastResp = resp
			lastErr = nil
			continue
		}
		return resp, nil
	}

	return c.giveUp(req, lastResp, lastErr, nil)
}

func (c *Client) giveUp(req Request, resp *Response, lastErr, ctxErr error) (*Response, error) {
	if resp != nil {
		return resp, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, core.NewTransportError(endpoint(req), "request cancelled", ctxErr)
}

// doRequest executes a single HTTP request without retries
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewTransportError(endpoint(req), "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, core.NewTransportError(endpoint(req), "failed to read response: "+err.Error(), err)
	}

	header := resp.Header.Clone()
	if enc := header.Get("Content-Encoding"); enc != "" {
		decoded, err := decompressBody(body, enc)
		if err != nil {
			return nil, core.NewTransportError(endpoint(req), "failed to decode "+enc+" response: "+err.Error(), err)
		}
		body = decoded
		header.Del("Content-Encoding")
		header.Set("Content-Length", strconv.Itoa(len(body)))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// buildRequest creates an HTTP request from a Request
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	switch b := req.Body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(b)
	case string:
		bodyReader = strings.NewReader(b)
	default:
		bodyBytes, err := json.Marshal(b)
		if err != nil {
			return nil, core.NewInvalidRequestError("failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(req.Path), bodyReader)
	if err != nil {
		return nil, core.NewInvalidRequestError("failed to create request", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	token := c.config.AuthToken
	if req.Token != "" {
		token = req.Token
	}
	if token != "" && !req.NoAuth {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.config.BaseURL + path
}

// calculateBackoff calculates the backoff duration for a given attempt
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffFactor, float64(attempt-1))
	if backoff > float64(c.config.MaxBackoff) {
		backoff = float64(c.config.MaxBackoff)
	}
	return time.Duration(backoff)
}

// isRetryable returns true if the status code indicates a retryable error
func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusGatewayTimeout
}

func endpoint(req Request) string {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + req.Path
}

func decompressBody(body []byte, contentEncoding string) ([]byte, error) {
	// "gzip, br" lists codings in application order; only single codings are decoded.
	encoding := strings.ToLower(strings.TrimSpace(strings.Split(contentEncoding, ",")[0]))
	if len(body) == 0 || encoding == "" || encoding == "identity" {
		return body, nil
	}

	var reader io.ReadCloser
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		reader = gz
	case "deflate":
		reader = flate.NewReader(bytes.NewReader(body))
	case "br":
		reader = io.NopCloser(brotli.NewReader(bytes.NewReader(body)))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	defer reader.Close()

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}
