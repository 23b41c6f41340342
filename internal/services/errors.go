package services

import "errors"

var (
	// ErrTokenInvalid covers unknown, expired, and already-used tokens; the
	// acknowledgment surface never distinguishes them.
	ErrTokenInvalid = errors.New("acknowledgment token is invalid")

	// ErrNoPendingEscalation means a tokenless acknowledgment arrived from a
	// supervisor with nothing awaiting their acknowledgment.
	ErrNoPendingEscalation = errors.New("no unacknowledged escalation for this supervisor")

	// ErrUserNotFound is returned when an operation targets an unknown chat ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creation collides with an existing chat ID.
	ErrUserExists = errors.New("user already exists")
)
