package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pedroscocco/linux-sac-bot/internal/engine"
	"github.com/pedroscocco/linux-sac-bot/internal/grammar"
	"github.com/pedroscocco/linux-sac-bot/internal/metrics"
	"github.com/pedroscocco/linux-sac-bot/internal/models"
	"github.com/pedroscocco/linux-sac-bot/internal/store"
)

const (
	optionsPrompt  = "Escolha uma opção:"
	attachmentNote = "Recebi seu anexo, mas só consigo responder mensagens de texto."
)

// InboundEvent is one user turn, already extracted from the webhook wire
// format by the gateway.
type InboundEvent struct {
	SenderID          string
	Timestamp         int64
	Text              string
	QuickReplyPayload string
	HasAttachment     bool
	IsEcho            bool
}

// ProfileResolver fetches a user's display name from the platform. Used
// only on first contact.
type ProfileResolver interface {
	Profile(ctx context.Context, externalID string) (string, error)
}

// Service orchestrates one inbound event: resolve or create the user,
// hand state and input to the engine, persist any transition, and return
// the ordered reply batch for the transport.
type Service struct {
	store    store.Store
	engine   *engine.Engine
	grammar  *grammar.Grammar
	profiles ProfileResolver
	metrics  *metrics.ConversationMetrics
	tracer   trace.Tracer
}

// NewService creates a new dialogue session service.
func NewService(st store.Store, g *grammar.Grammar, profiles ProfileResolver, cm *metrics.ConversationMetrics) *Service {
	return &Service{
		store:    st,
		engine:   engine.New(g),
		grammar:  g,
		profiles: profiles,
		metrics:  cm,
		tracer:   otel.Tracer("session-service"),
	}
}

// HandleEvent processes one inbound event and returns the messages to send,
// in delivery order: content first, then the quick-reply prompt.
//
// A transition is persisted before it is reported; if the conditional write
// fails, the error propagates and no reply claims the transition happened.
func (s *Service) HandleEvent(ctx context.Context, event InboundEvent) ([]models.OutboundMessage, error) {
	ctx, span := s.tracer.Start(ctx, "session.handle_event")
	defer span.End()

	sessionID := uuid.New().String()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("user.external_id", event.SenderID),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		s.metrics.RecordHandleDuration(ctx, outcome, time.Since(start))
	}()

	if event.IsEcho {
		s.metrics.RecordEventReceived(ctx, "echo")
		return nil, nil
	}

	input := event.QuickReplyPayload
	if input == "" {
		input = event.Text
	}

	if event.SenderID == "" || (input == "" && !event.HasAttachment) {
		s.metrics.RecordEventReceived(ctx, "malformed")
		outcome = "malformed"
		return nil, models.ErrMalformedEvent
	}
	s.metrics.RecordEventReceived(ctx, "message")

	record, err := s.store.Find(ctx, event.SenderID)
	if err != nil {
		span.RecordError(err)
		outcome = "store_error"
		return nil, err
	}

	if record == nil {
		return s.handleFirstContact(ctx, span, sessionID, event)
	}

	if input == "" {
		// Attachment-only turn: acknowledge, keep the state, re-offer the
		// options valid from here.
		return buildReply(attachmentNote, s.grammar.AvailableTransitions(record.StateLabel)), nil
	}

	decision := s.engine.Decide(record.StateLabel, input)
	span.SetAttributes(
		attribute.String("state.current", record.StateLabel),
		attribute.Bool("decision.transitioned", decision.Transitioned),
	)

	if decision.Transitioned {
		if err := s.store.UpdateState(ctx, record.ExternalID, record.StateLabel, decision.NextState); err != nil {
			span.RecordError(err)
			if errors.Is(err, models.ErrStateConflict) {
				s.metrics.RecordStateConflict(ctx, record.StateLabel)
				outcome = "conflict"
			} else {
				outcome = "store_error"
			}
			return nil, err
		}
		s.metrics.RecordTransition(ctx, record.StateLabel, decision.NextState)
		span.SetAttributes(attribute.String("state.next", decision.NextState))
		log.Printf(`{"level":"info","message":"State transition","session_id":"%s","external_id":"%s","from":"%s","to":"%s"}`,
			sessionID, event.SenderID, record.StateLabel, decision.NextState)
	} else if !decision.Intercepted {
		s.metrics.RecordUnmatchedInput(ctx, record.StateLabel)
		log.Printf(`{"level":"info","message":"Unmatched input","session_id":"%s","external_id":"%s","state":"%s"}`,
			sessionID, event.SenderID, record.StateLabel)
	}

	return buildReply(decision.Content, decision.Options), nil
}

// handleFirstContact creates the user record and treats the turn as an
// implicit arrival at the initial state. No transition decision is made:
// the first real input is evaluated on the next inbound event.
func (s *Service) handleFirstContact(ctx context.Context, span trace.Span, sessionID string, event InboundEvent) ([]models.OutboundMessage, error) {
	displayName, err := s.profiles.Profile(ctx, event.SenderID)
	if err != nil {
		// Best effort: a missing display name must not block the
		// conversation from starting.
		log.Printf(`{"level":"warn","message":"Profile lookup failed","session_id":"%s","external_id":"%s","error":"%v"}`,
			sessionID, event.SenderID, err)
		displayName = ""
	}

	record, err := s.store.Create(ctx, event.SenderID, displayName, s.grammar.Initial())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	log.Printf(`{"level":"info","message":"New conversation","session_id":"%s","external_id":"%s","display_name":"%s"}`,
		sessionID, record.ExternalID, record.DisplayName)

	arrival := s.engine.Arrival(record.StateLabel)
	return buildReply(arrival.Content, arrival.Options), nil
}

func buildReply(content string, options []string) []models.OutboundMessage {
	reply := []models.OutboundMessage{
		models.TextMessage{Body: content},
	}
	if len(options) == 0 {
		return reply
	}

	quickReplies := make([]models.QuickReplyOption, len(options))
	for i, label := range options {
		quickReplies[i] = models.QuickReplyOption{Label: label}
	}
	return append(reply, models.QuickReplyMessage{
		Body:    optionsPrompt,
		Options: quickReplies,
	})
}
