// Package apperr holds the error values shared across arbor's layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrRejected marks an operation whose precondition did not hold.
	// Engine code reports it as a silent no-op; only outer surfaces see it.
	ErrRejected = errors.New("rejected")

	ErrRootImmutable = errors.New("root note cannot be deleted or moved")
)

// StoreError reports that a call to the backing store failed. The in-memory
// tree is left as it was before the call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for op. Nil and not-found errors pass
// through unchanged.
func Store(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsStore reports whether err carries a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
