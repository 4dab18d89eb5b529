package contracts

import (
	"errors"

	"github.com/wonny/quantum/pkg/httputil"
)

// Error kinds shared across the pipeline. Fetch kinds come from the HTTP layer.
var (
	ErrTransport    = httputil.ErrTransport
	ErrTimeout      = httputil.ErrTimeout
	ErrCancelled    = httputil.ErrCancelled
	ErrNotFound     = httputil.ErrNotFound
	ErrUnauthorized = httputil.ErrUnauthorized
	ErrClient       = httputil.ErrClient
	ErrServer       = httputil.ErrServer
	ErrParse        = httputil.ErrParse

	// ErrStore wraps every storage failure; fatal to the current cycle
	ErrStore = errors.New("store error")
	// ErrMissingConfig is returned when a required key or token is absent
	ErrMissingConfig = errors.New("missing config")
	// ErrBadTarget is returned when a chat target rejects the message
	ErrBadTarget = errors.New("bad target")
)
