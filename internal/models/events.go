package models

// WebhookPayload is the body POSTed to the webhook endpoint. The platform
// may batch several page entries, each with several messaging events.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events delivered for one page.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is a single user turn.
type MessagingEvent struct {
	Sender    Principal `json:"sender"`
	Recipient Principal `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
}

// Principal identifies a conversation participant.
type Principal struct {
	ID string `json:"id"`
}

// Message carries text, a selected quick reply, or attachments. Text and
// attachments are mutually exclusive on the wire.
type Message struct {
	MID         string       `json:"mid,omitempty"`
	Text        string       `json:"text,omitempty"`
	IsEcho      bool         `json:"is_echo,omitempty"`
	QuickReply  *QuickReply  `json:"quick_reply,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// QuickReply is the payload returned when the user taps an offered option.
type QuickReply struct {
	Payload string `json:"payload"`
}

// Attachment is an opaque media marker; the bot only notes its presence.
type Attachment struct {
	Type string `json:"type"`
}
