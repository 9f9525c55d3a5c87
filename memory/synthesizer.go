package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/embedding"
	"github.com/parrotflow/converse/timeout"
)

const (
	recentMessagesInContext   = 5
	recentSentimentsInContext = 10
)

// Synthesizer distills a conversation context into memory segments. The
// synthesis is deterministic for a given context: durations derive from the
// context's own timestamps, not the wall clock.
type Synthesizer struct {
	embedder embedding.Embedder

	now func() time.Time
}

// NewSynthesizer creates a synthesizer. embedder may be nil to skip
// embedding generation.
func NewSynthesizer(embedder embedding.Embedder) *Synthesizer {
	return &Synthesizer{
		embedder: embedder,
		now:      time.Now,
	}
}

// Synthesize produces up to four segments from the context. Each segment is
// emitted only when its source data exists: summary needs at least one
// message, key points need goals or resolved topics, entities need extracted
// entities, context needs a non-empty window.
func (s *Synthesizer) Synthesize(c *conversation.Context) []Segment {
	now := s.now()
	segments := []Segment{}

	if c.MessageCount > 0 {
		segments = append(segments, Segment{
			ConversationID: c.ConversationID,
			SegmentType:    SegmentTypeSummary,
			Content: map[string]any{
				"state_flow":       c.StateFlow(),
				"message_count":    c.MessageCount,
				"duration_minutes": c.SessionDuration().Minutes(),
				"goals":            stringsOrEmpty(c.Goals),
				"resolved_topics":  stringsOrEmpty(c.ResolvedTopics),
			},
			Timestamp: now,
		})
	}

	if len(c.Goals) > 0 || len(c.ResolvedTopics) > 0 {
		segments = append(segments, Segment{
			ConversationID: c.ConversationID,
			SegmentType:    SegmentTypeKeyPoints,
			Content: map[string]any{
				"goals":    stringsOrEmpty(c.Goals),
				"resolved": stringsOrEmpty(c.ResolvedTopics),
				"pending":  stringsOrEmpty(c.PendingQuestions),
			},
			Timestamp: now,
		})
	}

	if len(c.Entities) > 0 {
		segments = append(segments, Segment{
			ConversationID: c.ConversationID,
			SegmentType:    SegmentTypeEntities,
			Content: map[string]any{
				"entities":     c.Entities,
				"entity_types": entityTypes(c),
			},
			Timestamp: now,
		})
	}

	if len(c.Window) > 0 {
		segments = append(segments, Segment{
			ConversationID: c.ConversationID,
			SegmentType:    SegmentTypeContext,
			Content: map[string]any{
				"recent_messages":     c.RecentTurns(recentMessagesInContext),
				"sentiment_trend":     stringsOrEmpty(c.RecentSentiments(recentSentimentsInContext)),
				"escalation_triggers": stringsOrEmpty(c.EscalationTriggers),
			},
			Timestamp: now,
		})
	}

	return segments
}

// Embed attaches embedding vectors to segments. The content itself is never
// altered; a failed embedding leaves the segment without a vector.
func (s *Synthesizer) Embed(ctx context.Context, segments []Segment) {
	if s.embedder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()

	for i := range segments {
		text, err := json.Marshal(segments[i].Content)
		if err != nil {
			slog.Warn("failed to encode segment for embedding",
				"segment_type", segments[i].SegmentType, "error", err)
			continue
		}
		vector, err := s.embedder.Embed(ctx, string(text))
		if err != nil {
			slog.Warn("failed to generate segment embedding",
				"segment_type", segments[i].SegmentType, "error", err)
			continue
		}
		segments[i].Embedding = vector
	}
}

// entityTypes returns the distinct entity labels in first-seen order.
func entityTypes(c *conversation.Context) []string {
	seen := map[string]bool{}
	types := []string{}
	for _, e := range c.Entities {
		if !seen[e.Label] {
			seen[e.Label] = true
			types = append(types, e.Label)
		}
	}
	return types
}

func stringsOrEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
