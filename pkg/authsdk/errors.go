package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Configuration Errors
// ============================================================================

// ConfigurationError is returned when a Config cannot be used to build a Client.
type ConfigurationError struct {
	// Field is the offending configuration field (e.g., "BaseURL")
	Field string

	// Reason is a human-readable description of the problem
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ============================================================================
// Serialization Errors
// ============================================================================

// SerializationError is returned when a payload cannot be encoded for the wire
// or a response body cannot be decoded into the expected shape. It is a local
// failure and is never retried.
type SerializationError struct {
	// Op is either "encode" or "decode"
	Op string

	Err error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to %s payload: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// ============================================================================
// Transport Errors
// ============================================================================

// TransportError is returned when no HTTP response was received at all
// (DNS, connect, timeout, cancelled context).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("network error executing %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ============================================================================
// API Errors
// ============================================================================

// APIError is returned when the identity API answered with a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Code is the machine readable error code from the error envelope, if any
	Code string

	// Message is the best-effort human readable message
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether the status is 401 or 403, the statuses that
// trigger a token refresh and end the session when returned by a refresh.
func (e *APIError) IsUnauthorized() bool {
	return isAuthFailure(e.StatusCode)
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// ============================================================================
// Session Errors
// ============================================================================

// SessionError reports a violated session precondition.
type SessionError struct {
	Reason string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return "session error: " + e.Reason
}

var (
	// ErrNotAuthenticated is returned by operations that need an access token
	// when the client holds none.
	ErrNotAuthenticated = &SessionError{Reason: "user must be logged in"}

	// ErrNoRefreshToken is returned by RefreshSession when no refresh token is held.
	// No network call is made.
	ErrNoRefreshToken = &SessionError{Reason: "no refresh token available"}
)

// ErrEmptyResponse is returned when a nominally successful response that must
// carry a session envelope has no body.
var ErrEmptyResponse = errors.New("authsdk: empty response")

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// errorEnvelope is the error body shape returned by the identity API.
type errorEnvelope struct {
	Code    string  `json:"code"`
	Message *string `json:"message"`
}

// parseErrorResponse converts a non-2xx response into an *APIError.
// The envelope message wins when present; otherwise the status is reported
// with the raw body appended.
func parseErrorResponse(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("Request failed with status %d", status),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Code
		if env.Message != nil {
			apiErr.Message = *env.Message
		}
		return apiErr
	}

	if raw := strings.TrimSpace(string(body)); raw != "" {
		apiErr.Message += ": " + raw
	}
	return apiErr
}
