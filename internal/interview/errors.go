package interview

import "errors"

var (
	// ErrSessionNotFound is returned when an operation references an unknown
	// or expired session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoResponses is returned when an evaluation is requested before the
	// candidate answered anything.
	ErrNoResponses = errors.New("no candidate responses to evaluate")

	// ErrInvariantViolation is returned when an operation is not allowed in the
	// session's current state, e.g. answering after the interview ended.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStageCall marks a failed or unusable model call. It never leaves the
	// coordinator: every stage replaces it with a deterministic fallback.
	ErrStageCall = errors.New("stage call failed")
)
