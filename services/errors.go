package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Callers match with errors.Is; the typed errors below
// carry the details.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("table already claimed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError is returned before any storage access.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}

// ConflictError means the table, or the reservation or waitlist entry being
// written, changed between read and write. Re-read and retry. TableID is
// zero when no table was involved.
type ConflictError struct {
	TableID uint
	Reason  string
}

func (e *ConflictError) Error() string {
	if e.TableID == 0 {
		return e.Reason
	}
	return fmt.Sprintf("table %d: %s", e.TableID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type NotFoundError struct {
	Kind string
	ID   uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps an infrastructure failure. Nothing was committed when
// one is returned from a mutating call, so retrying is safe.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// storageErr passes domain errors from the store through untouched and wraps
// everything else.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
