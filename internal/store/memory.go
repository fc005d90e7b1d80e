package store

import (
	"context"
	"sync"
	"time"

	"github.com/pedroscocco/linux-sac-bot/internal/models"
)

// MemoryStore keeps conversation records in process memory. Used in tests
// and for credential-less local runs. It honors the same conditional-write
// contract as PostgresStore.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.UserRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.UserRecord)}
}

func (s *MemoryStore) Find(ctx context.Context, externalID string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[externalID]
	if !ok {
		return nil, nil
	}
	snapshot := *record
	return &snapshot, nil
}

func (s *MemoryStore) Create(ctx context.Context, externalID, displayName, initialState string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	record := &models.UserRecord{
		ExternalID:  externalID,
		DisplayName: displayName,
		StateLabel:  initialState,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.records[externalID] = record

	snapshot := *record
	return &snapshot, nil
}

func (s *MemoryStore) UpdateState(ctx context.Context, externalID, fromState, toState string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[externalID]
	if !ok {
		return models.ErrRecordNotFound
	}
	if record.StateLabel != fromState {
		return models.ErrStateConflict
	}
	record.StateLabel = toState
	record.UpdatedAt = time.Now().UTC()
	return nil
}
