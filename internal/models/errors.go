package models

import "errors"

// Sentinel errors shared by every layer. Callers classify failures with
// errors.Is; each layer wraps these with context via fmt.Errorf("%w").
var (
	// ErrNotFound means the referenced id does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the permission evaluator denied the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition means a mutation targeted an immutable field or
	// an archival state the record is already in.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidation means malformed input: unknown enum value or an empty
	// required field.
	ErrValidation = errors.New("validation failed")
)
