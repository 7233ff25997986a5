package appinfo

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned (wrapped) when a fetch or logon wait exceeds its
// deadline. The background pump and other waiters are unaffected.
var ErrTimeout = errors.New("deadline exceeded")

// ErrClosed is returned when an operation is attempted on a Fetcher that has
// been shut down.
var ErrClosed = errors.New("appinfo: fetcher closed")

// ConnectionError indicates the Steam session could not reach the ready
// state: the logon was rejected, or the connection dropped before logon
// completed. Every caller waiting on that attempt receives the same error.
// A later call retries the connection from scratch.
type ConnectionError struct {
	// Reason is the underlying cause, if the client reported one.
	Reason error
}

func (e *ConnectionError) Error() string {
	if e.Reason == nil {
		return "steam connection failed"
	}
	return fmt.Sprintf("steam connection failed: %v", e.Reason)
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}
