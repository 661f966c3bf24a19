// Package api provides the client for the survey backend and its error types.
package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

var (
	// ErrNetwork marks transport-level failures: connection refused, DNS,
	// timeouts, cancelled contexts. The request may not have reached the server.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized indicates the session cookie is missing or no longer valid.
	ErrUnauthorized = errors.New("not authenticated")

	// ErrInvalidCredentials is returned by Login when the backend rejects the
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string // backend "message" field, if any
	Body       string // truncated raw body
}

func (e *StatusError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	if detail == "" {
		detail = nethttp.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, detail)
}

// Unwrap maps auth and not-found statuses onto the package sentinels so
// callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case nethttp.StatusUnauthorized, nethttp.StatusForbidden:
		return ErrUnauthorized
	case nethttp.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsRetryable reports whether repeating the same call later could succeed:
// transport failures, throttling, and server errors. It is advice for the
// UI's manual refresh, not an automatic retry policy.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsNetworkError(err) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == nethttp.StatusTooManyRequests || se.StatusCode >= 500
	}
	return false
}

// IsUnauthorized reports whether err means the session is gone.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
