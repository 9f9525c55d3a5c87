package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/embedding"
	"github.com/parrotflow/converse/nlu"
)

func fullContext() *conversation.Context {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &conversation.Context{
		ConversationID: "conv-1",
		UserID:         "user-1",
		CurrentState:   dialogue.StateProblemSolving,
		PreviousStates: []dialogue.State{dialogue.StateGreeting, dialogue.StateInformationGathering},
		MessageCount:   4,
		SessionStart:   start,
		LastActivity:   start.Add(30 * time.Minute),
		Window: []conversation.Turn{
			{Role: "user", Content: "my order is late", Timestamp: start, Sequence: 1},
			{Role: "assistant", Content: "let me check", Timestamp: start, Sequence: 2},
		},
		Entities: []nlu.Entity{
			{Text: "ORD-1", Label: "ORDER_NUMBER"},
			{Text: "widget", Label: "PRODUCT"},
			{Text: "ORD-2", Label: "ORDER_NUMBER"},
		},
		Goals:            []string{"resolve delivery issue"},
		ResolvedTopics:   []string{"shipping address"},
		PendingQuestions: []string{"refund timeline"},
		SentimentHistory: []string{"neutral", "negative"},
	}
}

func TestSynthesizeFullContext(t *testing.T) {
	s := NewSynthesizer(nil)
	segments := s.Synthesize(fullContext())

	require.Len(t, segments, 4)
	byType := map[string]Segment{}
	for _, segment := range segments {
		byType[segment.SegmentType] = segment
		assert.Equal(t, "conv-1", segment.ConversationID)
	}

	summary := byType[SegmentTypeSummary]
	assert.Equal(t, []string{"greeting", "information_gathering", "problem_solving"}, summary.Content["state_flow"])
	assert.Equal(t, 4, summary.Content["message_count"])
	assert.InDelta(t, 30.0, summary.Content["duration_minutes"].(float64), 1e-9)

	keyPoints := byType[SegmentTypeKeyPoints]
	assert.Equal(t, []string{"resolve delivery issue"}, keyPoints.Content["goals"])
	assert.Equal(t, []string{"shipping address"}, keyPoints.Content["resolved"])
	assert.Equal(t, []string{"refund timeline"}, keyPoints.Content["pending"])

	entities := byType[SegmentTypeEntities]
	// Distinct labels in first-seen order.
	assert.Equal(t, []string{"ORDER_NUMBER", "PRODUCT"}, entities.Content["entity_types"])

	contextSeg := byType[SegmentTypeContext]
	assert.Len(t, contextSeg.Content["recent_messages"], 2)
	assert.Equal(t, []string{"neutral", "negative"}, contextSeg.Content["sentiment_trend"])
}

func TestSynthesizeInclusionPredicates(t *testing.T) {
	s := NewSynthesizer(nil)

	t.Run("EmptyContext", func(t *testing.T) {
		c := &conversation.Context{ConversationID: "conv-1", CurrentState: dialogue.StateGreeting}
		assert.Empty(t, s.Synthesize(c))
	})

	t.Run("MessagesOnly", func(t *testing.T) {
		c := &conversation.Context{
			ConversationID: "conv-1",
			CurrentState:   dialogue.StateGreeting,
			MessageCount:   1,
			Window: []conversation.Turn{
				{Role: "user", Content: "hi", Sequence: 1},
			},
			SentimentHistory: []string{"neutral"},
		}
		segments := s.Synthesize(c)
		require.Len(t, segments, 2)
		assert.Equal(t, SegmentTypeSummary, segments[0].SegmentType)
		assert.Equal(t, SegmentTypeContext, segments[1].SegmentType)
	})

	t.Run("GoalsWithoutMessages", func(t *testing.T) {
		c := &conversation.Context{
			ConversationID: "conv-1",
			CurrentState:   dialogue.StateGreeting,
			Goals:          []string{"policy"},
		}
		segments := s.Synthesize(c)
		require.Len(t, segments, 1)
		assert.Equal(t, SegmentTypeKeyPoints, segments[0].SegmentType)
	})
}

func TestSynthesizeDeterministic(t *testing.T) {
	s := NewSynthesizer(nil)
	c := fullContext()

	first := s.Synthesize(c)
	second := s.Synthesize(c)
	require.Len(t, second, len(first))

	// Content is identical run to run; only the timestamp may differ.
	for i := range first {
		assert.Equal(t, first[i].SegmentType, second[i].SegmentType)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestSynthesizerEmbed(t *testing.T) {
	t.Run("AttachesVectors", func(t *testing.T) {
		mock := &embedding.MockEmbedder{Vector: []float32{0.1, 0.2}}
		s := NewSynthesizer(mock)

		segments := s.Synthesize(fullContext())
		before := make([]map[string]any, len(segments))
		for i := range segments {
			before[i] = segments[i].Content
		}

		s.Embed(context.Background(), segments)
		for i := range segments {
			assert.Equal(t, []float32{0.1, 0.2}, segments[i].Embedding)
			// Embedding never alters the content.
			assert.Equal(t, before[i], segments[i].Content)
		}
		assert.Len(t, mock.Inputs, len(segments))
	})

	t.Run("FailureLeavesSegmentsUsable", func(t *testing.T) {
		mock := &embedding.MockEmbedder{Err: assert.AnError}
		s := NewSynthesizer(mock)

		segments := s.Synthesize(fullContext())
		s.Embed(context.Background(), segments)
		for _, segment := range segments {
			assert.Nil(t, segment.Embedding)
		}
	})

	t.Run("NilEmbedderSkips", func(t *testing.T) {
		s := NewSynthesizer(nil)
		segments := s.Synthesize(fullContext())
		s.Embed(context.Background(), segments)
		for _, segment := range segments {
			assert.Nil(t, segment.Embedding)
		}
	})
}
