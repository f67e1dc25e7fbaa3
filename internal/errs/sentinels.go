// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds shared by repository and service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates the operation is not legal for the entity's current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation indicates bad input (negative price, bid below base cost, ...).
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates a backing-store failure.
	ErrStorage = errors.New("storage failure")

	// ErrUnauthorized indicates the actor is not permitted (wrong role, not the owner, bad credentials).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	// It is a validation failure from the caller's point of view.
	ErrAlreadyExists = fmt.Errorf("already exists: %w", ErrValidation)
)

var kinds = []error{ErrNotFound, ErrInvalidState, ErrValidation, ErrUnauthorized, ErrStorage}

// Error carries a kind and a message fit for display.
type Error struct {
	Kind error
	Msg  string
	Err  error // optional cause
}

// New builds an *Error of the given kind.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindOf maps err onto one of the five kinds. Unknown errors are storage failures.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrStorage
}

// Message returns the display message of err without the cause chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
