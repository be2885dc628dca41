package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrPermissionDenied = errors.New("notification permission denied")
)

// ValidationError reports input that was rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a storage failure. The in-memory state stays
// authoritative when one occurs.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
