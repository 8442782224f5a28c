package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrOperationFailed     = errors.New("operation failed")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrInvalidExecContext  = errors.New("invalid execution context")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrLocked              = errors.New("resource is locked")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrEmptySheet          = errors.New("sheet has no importable rows")
)

// NotFoundError reports an entity that could not be resolved inside the
// caller's gym. Records owned by another gym are reported the same way.
type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError is returned for malformed input, e.g. a non-positive
// duration on a period plan or an unknown plan type.
type ValidationError struct {
	Field  string
	Reason string
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// PersistenceError wraps a store failure. The surrounding transaction has
// been rolled back when a use case returns it.
type PersistenceError struct {
	Op  string
	Err error
}

func Persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: persistence failure", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrOperationFailed }

// ConflictError means the row changed between read and write.
type ConflictError struct {
	Entity string
	ID     string
}

func Conflict(entity, id string) *ConflictError {
	return &ConflictError{Entity: entity, ID: id}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q was modified concurrently", e.Entity, e.ID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConcurrencyConflict }

// AsPersistence passes domain errors through untouched and wraps anything
// else as a PersistenceError.
func AsPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		nf *NotFoundError
		ve *ValidationError
		pe *PersistenceError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ve), errors.As(err, &pe), errors.As(err, &ce):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrLocked), errors.Is(err, ErrRateLimited):
		return err
	}
	return Persistence(op, err)
}
