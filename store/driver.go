package store

import (
	"context"
	"database/sql"
)

// ConversationSave bundles everything persisted for one conversation
// checkpoint. Drivers apply it in a single transaction: the conversation
// row, the message rows, and the memory segments all land or none do.
type ConversationSave struct {
	Conversation *Conversation
	Messages     []*Message
	Segments     []*MemorySegmentRecord
}

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// SaveConversation atomically upserts the conversation, its new
	// messages, and its memory segments.
	SaveConversation(ctx context.Context, save *ConversationSave) error

	// Conversation model related methods.
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) error
	DeleteConversation(ctx context.Context, id string) error

	// Message model related methods.
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)

	// MemorySegment model related methods.
	ListMemorySegments(ctx context.Context, find *FindMemorySegment) ([]*MemorySegmentRecord, error)
}
