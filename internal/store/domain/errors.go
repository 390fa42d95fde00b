package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a referenced store or slug does not exist.
	ErrNotFound = errors.New("store not found")
	// ErrNotOwner indicates the requester is not the author of the store.
	// Mutations must not proceed when this is returned.
	ErrNotOwner = errors.New("requester does not own this store")
	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("invalid store data")
	// ErrUnsupportedMediaType indicates an upload whose MIME type is not an image.
	ErrUnsupportedMediaType = errors.New("uploaded file is not an image")
	// ErrInvalidQuery indicates non-numeric or out-of-range search input.
	ErrInvalidQuery = errors.New("invalid query parameters")
	// ErrStorageUnavailable indicates a transient storage failure. Callers may
	// retry with backoff; the engine does not retry internally.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError wraps ErrValidation with the violated field, so callers can
// surface it next to the offending form input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError reports a violation of a single named field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
