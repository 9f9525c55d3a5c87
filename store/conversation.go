package store

// ConversationStatus is the lifecycle status of a stored conversation.
type ConversationStatus string

const (
	ConversationStatusActive    ConversationStatus = "active"
	ConversationStatusCompleted ConversationStatus = "completed"
)

// Conversation is a persisted conversation record.
type Conversation struct {
	ID        string
	UserID    string
	Status    ConversationStatus
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

// FindConversation filters conversation queries.
type FindConversation struct {
	ID     *string
	UserID *string
	Status *ConversationStatus

	Limit  *int
	Offset *int
}

// UpdateConversation applies partial updates to a conversation record.
type UpdateConversation struct {
	ID string

	Status    *ConversationStatus
	Title     *string
	UpdatedTs *int64
}
