package params

import "errors"

var (
	// ErrNotFound indicates a parameter name absent from the store. Fatal to
	// the run: the stage that hits it must trip the shutdown token.
	ErrNotFound = errors.New("params: parameter not found")

	// ErrKindMismatch indicates a typed binding against a parameter of a
	// different kind.
	ErrKindMismatch = errors.New("params: kind mismatch")

	// ErrNoHistory indicates a history lookup on a parameter with no ring
	// attached.
	ErrNoHistory = errors.New("params: no history ring attached")
)
