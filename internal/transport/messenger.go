package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pedroscocco/linux-sac-bot/internal/models"
)

// Transport delivers an ordered batch of outbound messages to a user.
type Transport interface {
	Send(ctx context.Context, recipientID string, messages []models.OutboundMessage) error
}

// Messenger talks to the platform's Graph API: the Send endpoint for
// outbound messages and the profile endpoint for display names.
type Messenger struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	tracer      trace.Tracer
	breaker     *gobreaker.CircuitBreaker
}

// sendRequest is the Send API wire format.
type sendRequest struct {
	Recipient recipient      `json:"recipient"`
	Message   messagePayload `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type messagePayload struct {
	Text         string       `json:"text"`
	QuickReplies []quickReply `json:"quick_replies,omitempty"`
}

type quickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// sendResponse is the Send API acknowledgement.
type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// profileResponse is the profile endpoint payload.
type profileResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewMessenger creates a Graph API client. baseURL is the API root
// (e.g. https://graph.facebook.com/v2.6).
func NewMessenger(baseURL, accessToken string) *Messenger {
	settings := gobreaker.Settings{
		Name:        "graph-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &Messenger{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		tracer:  otel.Tracer("graph-api-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetBaseURL sets the base URL for testing purposes.
func (m *Messenger) SetBaseURL(baseURL string) {
	m.baseURL = strings.TrimRight(baseURL, "/")
}

// Send delivers messages in order, stopping at the first failure so the
// content-before-options contract is never violated by a partial batch.
func (m *Messenger) Send(ctx context.Context, recipientID string, messages []models.OutboundMessage) error {
	ctx, span := m.tracer.Start(ctx, "graph_api.send")
	defer span.End()

	span.SetAttributes(
		attribute.String("recipient.id", recipientID),
		attribute.Int("message.count", len(messages)),
	)

	for _, message := range messages {
		payload, err := buildPayload(message)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if _, err := m.breaker.Execute(func() (interface{}, error) {
			return nil, m.sendOne(ctx, recipientID, payload)
		}); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	return nil
}

func buildPayload(message models.OutboundMessage) (messagePayload, error) {
	switch msg := message.(type) {
	case models.TextMessage:
		return messagePayload{Text: msg.Body}, nil
	case models.QuickReplyMessage:
		replies := make([]quickReply, len(msg.Options))
		for i, opt := range msg.Options {
			replies[i] = quickReply{
				ContentType: "text",
				Title:       opt.Label,
				Payload:     opt.Label,
			}
		}
		return messagePayload{Text: msg.Body, QuickReplies: replies}, nil
	default:
		return messagePayload{}, fmt.Errorf("unsupported outbound message type %T", message)
	}
}

func (m *Messenger) sendOne(ctx context.Context, recipientID string, payload messagePayload) error {
	body, err := json.Marshal(sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", m.baseURL, url.QueryEscape(m.accessToken))
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("send api returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("send api returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var ack sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	log.Printf(`{"level":"info","message":"Message sent","recipient_id":"%s","message_id":"%s"}`,
		ack.RecipientID, ack.MessageID)

	return nil
}

// Profile fetches the user's display name. Implements
// session.ProfileResolver; used only on first contact.
func (m *Messenger) Profile(ctx context.Context, externalID string) (string, error) {
	ctx, span := m.tracer.Start(ctx, "graph_api.profile")
	defer span.End()

	span.SetAttributes(attribute.String("user.external_id", externalID))

	result, err := m.breaker.Execute(func() (interface{}, error) {
		return m.profileInternal(ctx, externalID)
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to fetch profile: %w", err)
	}

	return result.(string), nil
}

func (m *Messenger) profileInternal(ctx context.Context, externalID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=first_name,last_name&access_token=%s",
		m.baseURL, url.PathEscape(externalID), url.QueryEscape(m.accessToken))
	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("profile api returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return "", fmt.Errorf("profile api returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(profile.FirstName + " " + profile.LastName), nil
}
