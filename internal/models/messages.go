package models

// OutboundMessage is one message description handed to the transport.
// Delivery order within a reply batch is a protocol contract: the text
// message always precedes the quick-reply prompt.
type OutboundMessage interface {
	outbound()
}

// TextMessage is a plain text reply.
type TextMessage struct {
	Body string
}

// QuickReplyMessage is a prompt with selectable options.
type QuickReplyMessage struct {
	Body    string
	Options []QuickReplyOption
}

// QuickReplyOption is one selectable option. Label doubles as the payload
// sent back when the option is tapped.
type QuickReplyOption struct {
	Label string
}

func (TextMessage) outbound()       {}
func (QuickReplyMessage) outbound() {}
