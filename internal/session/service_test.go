package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedroscocco/linux-sac-bot/internal/grammar"
	"github.com/pedroscocco/linux-sac-bot/internal/metrics"
	"github.com/pedroscocco/linux-sac-bot/internal/models"
	"github.com/pedroscocco/linux-sac-bot/internal/store"
)

type stubResolver struct {
	name  string
	err   error
	calls int
}

func (r *stubResolver) Profile(ctx context.Context, externalID string) (string, error) {
	r.calls++
	return r.name, r.err
}

// faultyStore wraps a real store and injects failures.
type faultyStore struct {
	store.Store
	findErr   error
	updateErr error
}

func (s *faultyStore) Find(ctx context.Context, externalID string) (*models.UserRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.Store.Find(ctx, externalID)
}

func (s *faultyStore) UpdateState(ctx context.Context, externalID, fromState, toState string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateState(ctx, externalID, fromState, toState)
}

func newTestService(t *testing.T, st store.Store, resolver ProfileResolver) *Service {
	t.Helper()
	g, err := grammar.New(grammar.Default())
	require.NoError(t, err)
	cm, err := metrics.NewConversationMetrics()
	require.NoError(t, err)
	return NewService(st, g, resolver, cm)
}

func textBody(t *testing.T, msg models.OutboundMessage) string {
	t.Helper()
	text, ok := msg.(models.TextMessage)
	require.True(t, ok, "expected TextMessage, got %T", msg)
	return text.Body
}

func quickReplyLabels(t *testing.T, msg models.OutboundMessage) []string {
	t.Helper()
	prompt, ok := msg.(models.QuickReplyMessage)
	require.True(t, ok, "expected QuickReplyMessage, got %T", msg)
	labels := make([]string, len(prompt.Options))
	for i, opt := range prompt.Options {
		labels[i] = opt.Label
	}
	return labels
}

func TestHandleEvent_FirstContact(t *testing.T) {
	st := store.NewMemoryStore()
	resolver := &stubResolver{name: "Pedro Scocco"}
	svc := newTestService(t, st, resolver)
	ctx := context.Background()

	replies, err := svc.HandleEvent(ctx, InboundEvent{SenderID: "user-1", Text: "oi"})
	require.NoError(t, err)

	// First turn is an implicit arrival at the initial state: the greeting
	// and its three options, no transition decision.
	require.Len(t, replies, 2)
	assert.Contains(t, textBody(t, replies[0]), "assistente")
	assert.Equal(t, []string{"Sobre Impressão", "Reportar Problema", "Tirar Dúvida"}, quickReplyLabels(t, replies[1]))

	assert.Equal(t, 1, resolver.calls)

	record, err := st.Find(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, grammar.StateStart, record.StateLabel)
	assert.Equal(t, "Pedro Scocco", record.DisplayName)
}

func TestHandleEvent_FirstContactProfileFailureIsNotFatal(t *testing.T) {
	st := store.NewMemoryStore()
	resolver := &stubResolver{err: context.DeadlineExceeded}
	svc := newTestService(t, st, resolver)

	replies, err := svc.HandleEvent(context.Background(), InboundEvent{SenderID: "user-1", Text: "oi"})
	require.NoError(t, err)
	require.Len(t, replies, 2)

	record, err := st.Find(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Empty(t, record.DisplayName)
}

func TestHandleEvent_Transition(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, &stubResolver{})
	ctx := context.Background()
	_, err := st.Create(ctx, "user-1", "Pedro", grammar.StateStart)
	require.NoError(t, err)

	replies, err := svc.HandleEvent(ctx, InboundEvent{SenderID: "user-1", Text: "Sobre Impressão"})
	require.NoError(t, err)

	require.Len(t, replies, 2)
	assert.Contains(t, textBody(t, replies[0]), "cota")
	assert.Equal(t, []string{"Próximo", "Recomeçar"}, quickReplyLabels(t, replies[1]))

	record, err := st.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, grammar.StatePrint1, record.StateLabel)
}

func TestHandleEvent_QuickReplyPayloadWinsOverText(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, &stubResolver{})
	ctx := context.Background()
	_, err := st.Create(ctx, "user-1", "Pedro", grammar.StateStart)
	require.NoError(t, err)

	_, err = svc.HandleEvent(ctx, InboundEvent{
		SenderID:          "user-1",
		Text:              "Tirar Dúvida",
		QuickReplyPayload: "Sobre Impressão",
	})
	require.NoError(t, err)

	record, err := st.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, grammar.StatePrint1, record.StateLabel)
}

func TestHandleEvent_NoMatchKeepsState(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, &stubResolver{})
	ctx := context.Background()
	_, err := st.Create(ctx, "user-1", "Pedro", grammar.StateStart)
	require.NoError(t, err)

	replies, err := svc.HandleEvent(ctx, InboundEvent{SenderID: "user-1", Text: "xyzzy"})
	require.NoError(t, err)

	require.Len(t, replies, 2)
	assert.Contains(t, textBody(t, replies[0]), "não entendi")

	record, err := st.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, grammar.StateStart, record.StateLabel)
}

func TestHandleEvent_InterceptKeepsState(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, &stubResolver{})
	ctx := context.Background()
	_, err := st.Create(ctx, "user-1", "Pedro", grammar.StatePrint1)
	require.NoError(t, err)

	replies, err := svc.HandleEvent(ctx, InboundEvent{SenderID: "user-1", Text: "sudo"})
	require.NoError(t, err)
	assert.Contains(t, textBody(t, replies[0]), "sudoers")

	record, err := st.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, grammar.StatePrint1, record.StateLabel)
}

func TestHandleEvent_AttachmentOnly(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, &stubResolver{})
	ctx := context.Background()
	_, err := st.Create(ctx, "user-1", "Pedro", grammar.StatePrint1)
	require.NoError(t, err)

	replies, err := svc.HandleEvent(ctx, InboundEvent{SenderID: "user-1", HasAttachment: true})
	require.NoError(t, err)

	require.Len(t, replies, 2)
	assert.Contains(t, textBody(t, replies[0]), "anexo")
	assert.Equal(t, []string{"Próximo", "Recomeçar"}, quickReplyLabels(t, replies[1]))

	record, err := st.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, grammar.StatePrint1, record.StateLabel)
}

func TestHandleEvent_EchoIsDropped(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), &stubResolver{})

	replies, err := svc.HandleEvent(context.Background(), InboundEvent{SenderID: "user-1", Text: "oi", IsEcho: true})
	require.NoError(t, err)
	assert.Nil(t, replies)
}

func TestHandleEvent_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		event InboundEvent
	}{
		{"missing_sender", InboundEvent{Text: "oi"}},
		{"empty_turn", InboundEvent{SenderID: "user-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, store.NewMemoryStore(), &stubResolver{})

			replies, err := svc.HandleEvent(context.Background(), tt.event)
			assert.ErrorIs(t, err, models.ErrMalformedEvent)
			assert.Nil(t, replies)
		})
	}
}

// A transition that failed to persist must never be reported to the user.
func TestHandleEvent_StoreFailuresAbortTheSession(t *testing.T) {
	tests := []struct {
		name          string
		faults        func(*faultyStore)
		expectedError error
	}{
		{
			name:          "state_conflict",
			faults:        func(s *faultyStore) { s.updateErr = models.ErrStateConflict },
			expectedError: models.ErrStateConflict,
		},
		{
			name:          "store_unavailable_on_write",
			faults:        func(s *faultyStore) { s.updateErr = models.ErrStoreUnavailable },
			expectedError: models.ErrStoreUnavailable,
		},
		{
			name:          "store_unavailable_on_read",
			faults:        func(s *faultyStore) { s.findErr = models.ErrStoreUnavailable },
			expectedError: models.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemoryStore()
			ctx := context.Background()
			_, err := mem.Create(ctx, "user-1", "Pedro", grammar.StateStart)
			require.NoError(t, err)

			faulty := &faultyStore{Store: mem}
			tt.faults(faulty)
			svc := newTestService(t, faulty, &stubResolver{})

			replies, err := svc.HandleEvent(ctx, InboundEvent{SenderID: "user-1", Text: "Sobre Impressão"})
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, replies)
		})
	}
}
