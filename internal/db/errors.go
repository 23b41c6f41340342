package db

import "errors"

var (
	// ErrInvalidRecordID rejects updates that target a missing or
	// zero-valued audit record identifier.
	ErrInvalidRecordID = errors.New("audit record id is missing or invalid")

	// ErrVerificationFailed means a post-write re-read did not match the
	// intended values; the surrounding transaction is rolled back.
	ErrVerificationFailed = errors.New("post-write verification failed")

	// ErrTierOrderViolation rejects a second-supervisor increment on a
	// record whose primary supervisor was never notified.
	ErrTierOrderViolation = errors.New("second supervisor tier requires a prior supervisor notification")

	// ErrTokenInvalid covers both unknown and already-used acknowledgment
	// tokens. Callers must not distinguish the two cases to the outside.
	ErrTokenInvalid = errors.New("acknowledgment token invalid or already used")

	// ErrUnknownAuditOp rejects audit changes outside the closed operation set.
	ErrUnknownAuditOp = errors.New("unknown audit update operation")
)
