package httputil

import (
	"errors"
	"fmt"
)

// Fetch error kinds. Callers match them with errors.Is.
var (
	ErrTransport    = errors.New("transport error")
	ErrTimeout      = errors.New("timeout")
	ErrCancelled    = errors.New("cancelled")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrClient       = errors.New("client error")
	ErrServer       = errors.New("server error")
	ErrParse        = errors.New("parse error")
)

// StatusError carries the HTTP detail of a failed request
type StatusError struct {
	Kind       error
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", e.Kind, e.URL, e.StatusCode)
}

// Unwrap lets errors.Is match the kind
func (e *StatusError) Unwrap() error {
	return e.Kind
}

// StatusCode extracts the HTTP status from err, 0 when err carries none
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// kindForStatus maps a non-2xx status to its terminal kind
func kindForStatus(code int) error {
	switch {
	case code == 404:
		return ErrNotFound
	case code == 401 || code == 403:
		return ErrUnauthorized
	case code >= 500:
		return ErrServer
	default:
		return ErrClient
	}
}

// countsAsFailure reports whether a terminal error should trip the host breaker
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrClient),
		errors.Is(err, ErrCancelled),
		errors.Is(err, ErrParse):
		return false
	}
	return true
}
