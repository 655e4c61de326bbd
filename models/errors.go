package models

import "errors"

// Error taxonomy surfaced by the service layer. Handlers map these to HTTP
// status codes with errors.Is; services wrap them with context via
// fmt.Errorf("...: %w", Err...).
var (
	// ErrNotFound - a referenced season/episode/castaway/rule/player row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation - malformed input, e.g. a negative or non-numeric count for a per-instance rule.
	ErrValidation = errors.New("validation failed")
	// ErrState - the operation is not allowed in the season's current lifecycle status.
	ErrState = errors.New("invalid season state")
	// ErrConflict - a uniqueness constraint would be violated (duplicate rule key, username, prediction).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized - missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
