package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedroscocco/linux-sac-bot/internal/models"
)

// PostgresStore persists conversation records in the conversation_users
// table (see migrations/001_conversation_users.sql).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Find(ctx context.Context, externalID string) (*models.UserRecord, error) {
	var record models.UserRecord

	err := s.pool.QueryRow(ctx, `
		SELECT external_id, display_name, state_label, created_at, updated_at
		FROM conversation_users
		WHERE external_id = $1
	`, externalID).Scan(
		&record.ExternalID,
		&record.DisplayName,
		&record.StateLabel,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to find user %s: %v", models.ErrStoreUnavailable, externalID, err)
	}

	return &record, nil
}

func (s *PostgresStore) Create(ctx context.Context, externalID, displayName, initialState string) (*models.UserRecord, error) {
	var record models.UserRecord

	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversation_users (external_id, display_name, state_label)
		VALUES ($1, $2, $3)
		RETURNING external_id, display_name, state_label, created_at, updated_at
	`, externalID, displayName, initialState).Scan(
		&record.ExternalID,
		&record.DisplayName,
		&record.StateLabel,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to create user %s: %v", models.ErrStoreUnavailable, externalID, err)
	}

	return &record, nil
}

// UpdateState performs the optimistic conditional write: the row is only
// touched while state_label still equals fromState. Zero rows affected
// means either a concurrent session already moved the user or the record
// is gone; a follow-up existence check tells the two apart.
func (s *PostgresStore) UpdateState(ctx context.Context, externalID, fromState, toState string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE conversation_users
		SET state_label = $3, updated_at = NOW()
		WHERE external_id = $1 AND state_label = $2
	`, externalID, fromState, toState)

	if err != nil {
		return fmt.Errorf("%w: failed to update state for user %s: %v", models.ErrStoreUnavailable, externalID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM conversation_users WHERE external_id = $1)
	`, externalID).Scan(&exists)

	if err != nil {
		return fmt.Errorf("%w: failed to check user %s: %v", models.ErrStoreUnavailable, externalID, err)
	}
	if exists {
		return models.ErrStateConflict
	}
	return models.ErrRecordNotFound
}
