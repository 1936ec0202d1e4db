package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no run exists with the requested ID.
	ErrNotFound = errors.New("store: run not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// SerializationError wraps JSON encoding errors for a stored state.
type SerializationError struct {
	ID  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialization error for run %q: %v", e.ID, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
