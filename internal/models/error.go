package models

import "errors"

var (
	// ErrRecordNotFound indicates a write addressed a user record that no
	// longer exists.
	ErrRecordNotFound = errors.New("user record not found")

	// ErrStateConflict indicates an optimistic state update lost a race:
	// the stored state no longer matches the state the decision was based
	// on. Transient; the next inbound event re-reads fresh state.
	ErrStateConflict = errors.New("conversation state changed concurrently")

	// ErrStoreUnavailable indicates the backing persistence could not be
	// reached.
	ErrStoreUnavailable = errors.New("conversation store unavailable")

	// ErrMalformedEvent indicates an inbound event missing the fields
	// needed to drive a conversation turn. Dropped with a log entry.
	ErrMalformedEvent = errors.New("malformed messaging event")

	// ErrUnknownState indicates a state label the grammar does not know.
	// Reaching it at runtime is a programmer error; grammar validation
	// rejects it at load time.
	ErrUnknownState = errors.New("unknown conversation state")
)
