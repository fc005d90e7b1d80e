package gateway

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pedroscocco/linux-sac-bot/internal/metrics"
	"github.com/pedroscocco/linux-sac-bot/internal/models"
	"github.com/pedroscocco/linux-sac-bot/internal/session"
	"github.com/pedroscocco/linux-sac-bot/internal/transport"
)

// SessionService is the slice of the session layer the gateway depends on.
type SessionService interface {
	HandleEvent(ctx context.Context, event session.InboundEvent) ([]models.OutboundMessage, error)
}

// Handler handles webhook HTTP requests for the gateway layer.
type Handler struct {
	service     SessionService
	transport   transport.Transport
	metrics     *metrics.ConversationMetrics
	verifyToken string
}

// NewHandler creates a new gateway handler.
func NewHandler(service SessionService, tr transport.Transport, cm *metrics.ConversationMetrics, verifyToken string) *Handler {
	return &Handler{
		service:     service,
		transport:   tr,
		metrics:     cm,
		verifyToken: verifyToken,
	}
}

// Verify answers the platform's webhook subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func (h *Handler) Verify(c *gin.Context) {
	if c.Query("hub.mode") == "subscribe" && c.Query("hub.verify_token") == h.verifyToken {
		log.Printf(`{"level":"info","message":"Webhook verified"}`)
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}

	log.Printf(`{"level":"warn","message":"Webhook verification failed"}`)
	c.Status(http.StatusForbidden)
}

// Receive handles a batched webhook delivery. Every messaging event is
// processed independently; failures are logged, never propagated, because
// the platform expects a 200 within its delivery window and retries whole
// batches otherwise.
func (h *Handler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if payload.Object != "page" {
		c.Status(http.StatusNotFound)
		return
	}

	ctx := c.Request.Context()
	for _, entry := range payload.Entry {
		for _, event := range entry.Messaging {
			h.handleOne(ctx, event)
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) handleOne(ctx context.Context, event models.MessagingEvent) {
	if event.Message == nil {
		log.Printf(`{"level":"info","message":"Ignoring non-message event","sender_id":"%s"}`, event.Sender.ID)
		return
	}

	inbound := session.InboundEvent{
		SenderID:      event.Sender.ID,
		Timestamp:     event.Timestamp,
		Text:          event.Message.Text,
		HasAttachment: len(event.Message.Attachments) > 0,
		IsEcho:        event.Message.IsEcho,
	}
	if event.Message.QuickReply != nil {
		inbound.QuickReplyPayload = event.Message.QuickReply.Payload
	}

	replies, err := h.service.HandleEvent(ctx, inbound)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMalformedEvent):
			log.Printf(`{"level":"info","message":"Dropped malformed event","sender_id":"%s"}`, event.Sender.ID)
		case errors.Is(err, models.ErrStateConflict):
			log.Printf(`{"level":"info","message":"Session lost state race","sender_id":"%s"}`, event.Sender.ID)
		default:
			log.Printf(`{"level":"error","message":"Failed to handle event","sender_id":"%s","error":"%v"}`, event.Sender.ID, err)
		}
		return
	}
	if len(replies) == 0 {
		return
	}

	if err := h.transport.Send(ctx, event.Sender.ID, replies); err != nil {
		h.metrics.RecordSendFailure(ctx)
		log.Printf(`{"level":"error","message":"Failed to deliver reply","sender_id":"%s","error":"%v"}`, event.Sender.ID, err)
	}
}
