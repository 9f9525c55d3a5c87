package store

// MemorySegmentRecord is a persisted memory segment. Content is the JSON
// encoding of the segment payload.
type MemorySegmentRecord struct {
	ConversationID string
	SegmentType    string
	Content        string
	CreatedTs      int64

	// Embedding is the optional vector for semantic search.
	Embedding []float32
}

// FindMemorySegment filters memory segment queries.
type FindMemorySegment struct {
	ConversationID *string
	SegmentType    *string
}
