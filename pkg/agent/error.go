package agent

import "errors"

var (
	// ErrMessageNotFound is returned when the turn state holds no message of
	// the requested role. A turn always has at least one human message, and
	// one ai message after model invocation; absence is a structural
	// violation fatal to that turn.
	ErrMessageNotFound = errors.New("no message of requested role in turn state")

	// ErrTypeMismatch is returned when an extracted message does not carry
	// the expected role tag. The engine guarantees role integrity, so a
	// mismatch indicates a deeper contract failure and must not be coerced.
	ErrTypeMismatch = errors.New("message role does not match expected role")
)
