// Package core provides the error types shared by the API client and the mock bank server.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeTransport indicates the request never produced an HTTP response
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeUpstream indicates a server-side failure of the target (5xx)
	ErrorTypeUpstream ErrorType = "upstream_error"
	// ErrorTypeRateLimit indicates a rate limit error (429)
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
	// ErrorTypeInvalidRequest indicates a client error (4xx)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAuthentication indicates an authentication error (401/403)
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeNotFound indicates a not found error (404)
	ErrorTypeNotFound ErrorType = "not_found_error"
)

// APIError is the error type returned by the API client and rendered by the mock bank server
type APIError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Endpoint   string    `json:"endpoint,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Endpoint, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstream, ErrorTypeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *APIError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewTransportError creates an error for a request that got no response
func NewTransportError(endpoint string, message string, err error) *APIError {
	return &APIError{
		Type:     ErrorTypeTransport,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NewUpstreamError creates a new upstream error (5xx)
func NewUpstreamError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(endpoint string, message string) *APIError {
	return &APIError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		Endpoint:   endpoint,
	}
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *APIError {
	return NewInvalidRequestErrorWithStatus(http.StatusBadRequest, message, err)
}

// NewInvalidRequestErrorWithStatus creates a new invalid request error with a specific status code
func NewInvalidRequestErrorWithStatus(statusCode int, message string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// ParseAPIError builds an APIError from a non-2xx response
func ParseAPIError(endpoint string, statusCode int, body []byte) *APIError {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error.Message != "" {
		message = errorResponse.Error.Message
	}

	var apiErr *APIError
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		apiErr = NewAuthenticationError(message)
		apiErr.StatusCode = statusCode
	case statusCode == http.StatusNotFound:
		apiErr = NewNotFoundError(message)
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(endpoint, message)
	case statusCode >= 400 && statusCode < 500:
		apiErr = NewInvalidRequestErrorWithStatus(statusCode, message, nil)
	default:
		return NewUpstreamError(endpoint, statusCode, message)
	}
	apiErr.Endpoint = endpoint
	return apiErr
}
