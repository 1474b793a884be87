package domain

import "errors"

// Error taxonomy shared by the store and the engine. Callers branch with
// errors.Is; everything else wraps one of these.
var (
	// ErrValidation marks bad, user-correctable input (malformed or
	// past-dated time, malformed date).
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a policy refusal (blocked participant).
	ErrForbidden = errors.New("forbidden")

	// ErrIntegrity marks a referential violation inside the store. The
	// engine pre-checks existence, so seeing this indicates a bug.
	ErrIntegrity = errors.New("integrity violation")
)
