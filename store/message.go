package store

import "github.com/parrotflow/converse/nlu"

// MessageSender identifies who produced a message.
type MessageSender string

const (
	MessageSenderUser      MessageSender = "user"
	MessageSenderAssistant MessageSender = "assistant"
)

// Message is a persisted conversation message.
type Message struct {
	ID             string
	ConversationID string
	Sender         MessageSender
	Content        string
	CreatedTs      int64

	// Entities extracted from the message, if any.
	Entities []nlu.Entity
}

// FindMessage filters message queries.
type FindMessage struct {
	ID             *string
	ConversationID *string
	Sender         *MessageSender
}
