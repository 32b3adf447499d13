package transport

import (
	"context"

	"remindd/internal/domain"
)

// Control is one inline button: a label plus the opaque payload handed back
// when the user presses it.
type Control struct {
	Label string
	Data  string
}

// Message is transport-agnostic outbound content. Controls become an inline
// keyboard; the two reply-keyboard flags cover the receiver-selection
// affordance and its removal on /stop.
type Message struct {
	ChatID   int64
	Text     string
	HTML     bool
	Controls [][]Control

	RequestReceiverKeyboard bool
	RemoveReplyKeyboard     bool
}

type SendResult struct {
	MessageID int
}

// Sender delivers rendered content to a chat.
type Sender interface {
	Send(ctx context.Context, message Message) (SendResult, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, html bool) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Receiver yields normalized inbound events from the chat platform.
type Receiver interface {
	Receive(ctx context.Context) ([]domain.Event, error)
}
