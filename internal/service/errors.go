package service

import "errors"

// ErrForbidden is returned when the caller is neither the owner of the link
// nor an admin. Existence is not hidden from unauthorized callers.
var ErrForbidden = errors.New("forbidden")

// ValidationError rejects malformed input with a human-readable reason. The
// rejected operation is never partially applied.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}
