package session

import "errors"

var (
	// ErrAborted signals the user interrupted the prompt flow, usually Ctrl+C.
	ErrAborted = errors.New("session: aborted")

	// ErrTooManyAttempts reports a field whose answers kept failing validation
	// past the configured attempt limit.
	ErrTooManyAttempts = errors.New("session: too many invalid attempts")
)
