package api

import "errors"

// Sentinel errors shared across the feature packages. Repositories and
// services wrap these with fmt.Errorf("...: %w", ...) so handlers can map
// them to HTTP statuses with errors.Is.
var (
	// ErrNotFound is returned when a requested user or resource does not exist.
	ErrNotFound = errors.New("requested item not found")
	// ErrConflict is returned when a unique constraint is violated, e.g. a
	// username that is already taken.
	ErrConflict = errors.New("item already exists or conflict")
	// ErrUnauthenticated is returned when an action requires a valid session
	// identity and none is present.
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	// ErrForbidden is returned when an authenticated identity is not allowed
	// to perform the action.
	ErrForbidden = errors.New("action forbidden")

	// Login-specific failures. Distinguished from ErrUnauthenticated because
	// login happens before a session exists; the presentation layer shows
	// different messages for each.
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
)

// ValidationError carries which field failed and why, so the presentation
// layer can show an actionable message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
