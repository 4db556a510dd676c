package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a document with the given slug
	// already exists.
	ErrConflict = errors.New("document already exists")
)

// StoreError carries the structured fields the underlying store attaches
// to a failed query or mutation. Fields the store does not provide stay
// empty; nothing is swallowed.
type StoreError struct {
	Code       string
	Message    string
	Detail     string
	Constraint string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store error %s: %s", e.Code, e.Message)
	}
	return "store error: " + e.Message
}

// AsStoreError extracts a *StoreError from err's chain, if present.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	ok := errors.As(err, &se)
	return se, ok
}
