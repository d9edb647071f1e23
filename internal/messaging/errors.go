package messaging

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned by Send when no identity is supplied.
	// Read paths return an empty result instead.
	ErrNotAuthenticated = errors.New("messaging: not authenticated")
	ErrMessageTooLong   = fmt.Errorf("messaging: message exceeds %d characters", MaxMessageLength)
	ErrListingNotFound  = errors.New("messaging: listing not found")
	// ErrClientIDConflict is returned when a client message id the sender
	// already used on one listing is replayed on another.
	ErrClientIDConflict = errors.New("messaging: client message id already used on another listing")
)

// StoreError wraps a failure reported by a collaborator store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("messaging: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err came from a store collaborator.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
