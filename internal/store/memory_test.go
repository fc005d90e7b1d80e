package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedroscocco/linux-sac-bot/internal/models"
)

func TestMemoryStore_FindAbsent(t *testing.T) {
	s := NewMemoryStore()

	record, err := s.Find(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "user-1", "Pedro", "start")
	require.NoError(t, err)
	assert.Equal(t, "start", created.StateLabel)

	found, err := s.Find(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Pedro", found.DisplayName)
	assert.Equal(t, "start", found.StateLabel)
}

func TestMemoryStore_FindReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "user-1", "Pedro", "start")
	require.NoError(t, err)

	found, err := s.Find(ctx, "user-1")
	require.NoError(t, err)
	found.StateLabel = "mutated"

	again, err := s.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "start", again.StateLabel, "caller mutation must not leak into the store")
}

func TestMemoryStore_UpdateState(t *testing.T) {
	tests := []struct {
		name          string
		externalID    string
		fromState     string
		expectedError error
	}{
		{"successful_update", "user-1", "start", nil},
		{"stale_from_state", "user-1", "print_2", models.ErrStateConflict},
		{"missing_record", "ghost", "start", models.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			ctx := context.Background()
			_, err := s.Create(ctx, "user-1", "Pedro", "start")
			require.NoError(t, err)

			err = s.UpdateState(ctx, tt.externalID, tt.fromState, "print_1")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)

			record, err := s.Find(ctx, tt.externalID)
			require.NoError(t, err)
			assert.Equal(t, "print_1", record.StateLabel)
		})
	}
}

// Two sessions that both read state "start" and both decide the same
// transition must not both persist it: exactly one conditional write wins.
func TestMemoryStore_ConcurrentUpdateConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "user-1", "Pedro", "start")
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.UpdateState(ctx, "user-1", "start", "print_1")
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, models.ErrStateConflict):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	record, err := s.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "print_1", record.StateLabel)
}
