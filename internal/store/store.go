package store

import (
	"context"

	"github.com/pedroscocco/linux-sac-bot/internal/models"
)

// Store is the durable mapping from an external user ID to a conversation
// record. The session handler owns the read-decide-write sequence; the
// store's job is to make the write safe against concurrent sessions for
// the same user.
type Store interface {
	// Find returns the record for externalID, or (nil, nil) for a user
	// never seen before. Infrastructure failures wrap
	// models.ErrStoreUnavailable.
	Find(ctx context.Context, externalID string) (*models.UserRecord, error)

	// Create inserts a record at the grammar's initial state. The caller
	// is responsible for calling Find first; Create on an existing user
	// is a caller bug.
	Create(ctx context.Context, externalID, displayName, initialState string) (*models.UserRecord, error)

	// UpdateState persists a transition conditionally: it succeeds only
	// while the stored state still equals fromState. A lost race yields
	// models.ErrStateConflict; a vanished record models.ErrRecordNotFound.
	UpdateState(ctx context.Context, externalID, fromState, toState string) error
}
