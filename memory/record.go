package memory

import (
	"encoding/json"
	"fmt"

	"github.com/parrotflow/converse/store"
)

// segmentRecord converts a segment into its persisted form.
func segmentRecord(segment Segment) (*store.MemorySegmentRecord, error) {
	content, err := json.Marshal(segment.Content)
	if err != nil {
		return nil, fmt.Errorf("encode %s segment: %w", segment.SegmentType, err)
	}
	return &store.MemorySegmentRecord{
		ConversationID: segment.ConversationID,
		SegmentType:    segment.SegmentType,
		Content:        string(content),
		CreatedTs:      segment.Timestamp.Unix(),
		Embedding:      segment.Embedding,
	}, nil
}
