package memory

import (
	"context"
	"fmt"
)

// Sentiment trend labels.
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// BasicStats summarizes the shape of a conversation.
type BasicStats struct {
	MessageCount     int     `json:"message_count"`
	DurationHours    float64 `json:"duration_hours"`
	FinalState       string  `json:"final_state"`
	ResolutionStatus string  `json:"resolution_status"`
}

// ContentAnalysis summarizes what the conversation was about.
type ContentAnalysis struct {
	TopicsDiscussed []string `json:"topics_discussed"`
	KeyEntities     int      `json:"key_entities"`
	KeyPoints       []string `json:"key_points"`
}

// SentimentAnalysis summarizes how the customer felt over the conversation.
type SentimentAnalysis struct {
	Timeline     []SentimentPoint   `json:"sentiment_timeline"`
	Distribution map[string]float64 `json:"sentiment_distribution"`
	Trend        string             `json:"trend"`
}

// EngagementMetrics are derived ratios over the conversation content.
type EngagementMetrics struct {
	EntityDensity  float64 `json:"entity_density"`
	ResolutionRate float64 `json:"resolution_rate"`
}

// Insights is the analytical view over one conversation memory.
type Insights struct {
	ConversationID string            `json:"conversation_id"`
	BasicStats     BasicStats        `json:"basic_stats"`
	Content        ContentAnalysis   `json:"content_analysis"`
	Sentiment      SentimentAnalysis `json:"sentiment_analysis"`
	Engagement     EngagementMetrics `json:"engagement_metrics"`
}

// GetInsights computes insights for a remembered conversation.
func (s *Service) GetInsights(ctx context.Context, conversationID string) (*Insights, error) {
	memory, err := s.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}

	distribution, trend := analyzeSentiment(memory.SentimentTimeline)

	resolved := 0
	for _, point := range memory.KeyPoints {
		for _, topic := range memory.TopicsDiscussed {
			if point == topic {
				resolved++
				break
			}
		}
	}

	insights := &Insights{
		ConversationID: conversationID,
		BasicStats: BasicStats{
			MessageCount:     memory.MessageCount,
			DurationHours:    memory.UpdatedAt.Sub(memory.CreatedAt).Hours(),
			FinalState:       string(memory.FinalState),
			ResolutionStatus: memory.ResolutionStatus,
		},
		Content: ContentAnalysis{
			TopicsDiscussed: memory.TopicsDiscussed,
			KeyEntities:     len(memory.Entities),
			KeyPoints:       memory.KeyPoints,
		},
		Sentiment: SentimentAnalysis{
			Timeline:     memory.SentimentTimeline,
			Distribution: distribution,
			Trend:        trend,
		},
		Engagement: EngagementMetrics{
			EntityDensity:  float64(len(memory.Entities)) / float64(max(memory.MessageCount, 1)),
			ResolutionRate: float64(resolved) / float64(max(len(memory.TopicsDiscussed), 1)),
		},
	}
	return insights, nil
}

// analyzeSentiment computes the sentiment distribution and the recent trend.
// The trend looks at the last three entries: all positive is improving, all
// negative is declining, anything mixed is stable.
func analyzeSentiment(timeline []SentimentPoint) (map[string]float64, string) {
	if len(timeline) == 0 {
		return map[string]float64{}, TrendStable
	}

	counts := map[string]int{}
	for _, point := range timeline {
		counts[point.Sentiment]++
	}
	distribution := make(map[string]float64, len(counts))
	for sentiment, count := range counts {
		distribution[sentiment] = float64(count) / float64(len(timeline))
	}

	if len(timeline) < 3 {
		return distribution, TrendInsufficientData
	}

	recent := timeline[len(timeline)-3:]
	allPositive, allNegative := true, true
	for _, point := range recent {
		if point.Sentiment != "positive" {
			allPositive = false
		}
		if point.Sentiment != "negative" {
			allNegative = false
		}
	}
	switch {
	case allPositive:
		return distribution, TrendImproving
	case allNegative:
		return distribution, TrendDeclining
	default:
		return distribution, TrendStable
	}
}
