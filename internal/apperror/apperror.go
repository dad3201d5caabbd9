// Package apperror defines the closed set of error categories used across
// the application. Callers branch on category with errors.Is rather than
// matching message strings.
package apperror

import (
	"errors"
	"fmt"
)

// Category sentinels. Every AppError wraps exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrNotOwner   = errors.New("not owner")
	ErrConflict   = errors.New("conflict")
)

// AppError is a categorized error with structured context about what failed.
type AppError struct {
	Err      error  // category sentinel
	Message  string // human-readable message
	Resource string // what kind of thing was involved (event, comment, user)
	ID       string // identifier of the offending thing, if known
	Field    string // field that failed validation, if any
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports a bad field value.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// InvalidID reports a malformed identifier. Validation category: the value
// is rejected before any store lookup happens.
func InvalidID(resource, id string) *AppError {
	return &AppError{
		Err:      ErrValidation,
		Message:  fmt.Sprintf("invalid %s ID %q", resource, id),
		Resource: resource,
		ID:       id,
	}
}

// NotFound reports a referenced resource that does not exist.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:      ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
		Resource: resource,
		ID:       id,
	}
}

// NotOwner reports an operation attempted by someone other than the
// resource's owner. There is no moderator override.
func NotOwner(message string) *AppError {
	return &AppError{
		Err:     ErrNotOwner,
		Message: message,
	}
}

// Conflict reports a concurrent modification detected during write-back.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:      ErrConflict,
		Message:  fmt.Sprintf("%s %s was modified concurrently", resource, id),
		Resource: resource,
		ID:       id,
	}
}
