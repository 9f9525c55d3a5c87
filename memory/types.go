// Package memory synthesizes conversation contexts into durable memory
// structures and manages their persistence and recall.
package memory

import (
	"time"

	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/nlu"
)

// Segment types produced by the synthesizer.
const (
	SegmentTypeSummary   = "summary"
	SegmentTypeKeyPoints = "key_points"
	SegmentTypeEntities  = "entities"
	SegmentTypeContext   = "context"
)

// Segment is one retrievable slice of conversation memory.
type Segment struct {
	ConversationID string         `json:"conversation_id"`
	SegmentType    string         `json:"segment_type"`
	Content        map[string]any `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	Embedding      []float32      `json:"embedding,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// SentimentPoint is one entry of the sentiment timeline.
type SentimentPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Sentiment string    `json:"sentiment"`
}

// Resolution statuses of a remembered conversation.
const (
	ResolutionActive    = "active"
	ResolutionCompleted = "completed"
)

// ConversationMemory is the complete remembered form of a conversation.
type ConversationMemory struct {
	ConversationID    string           `json:"conversation_id"`
	UserID            string           `json:"user_id"`
	Title             string           `json:"title"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	MessageCount      int              `json:"message_count"`
	FinalState        dialogue.State   `json:"final_state"`
	Summary           string           `json:"summary"`
	KeyPoints         []string         `json:"key_points"`
	Entities          []nlu.Entity     `json:"entities"`
	SentimentTimeline []SentimentPoint `json:"sentiment_timeline"`
	TopicsDiscussed   []string         `json:"topics_discussed"`
	ResolutionStatus  string           `json:"resolution_status"`
	Metadata          map[string]any   `json:"metadata"`
	Segments          []Segment        `json:"memory_segments"`
}
