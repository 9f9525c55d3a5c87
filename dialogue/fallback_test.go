package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackDecision(t *testing.T) {
	t.Run("NewConversation", func(t *testing.T) {
		// First message always routes to information gathering.
		for _, current := range States {
			d := FallbackDecision(1, current)
			assert.Equal(t, StateInformationGathering, d.NextState)
			assert.Equal(t, ActionAskQuestion, d.Action)
			assert.Equal(t, "greeting_followup", d.ResponseType)
			assert.Equal(t, 0.5, d.Confidence)
			assert.False(t, d.ShouldEscalate)
			assert.True(t, d.Fallback)
		}
	})

	t.Run("MaintainState", func(t *testing.T) {
		d := FallbackDecision(7, StateSupport)
		assert.Equal(t, StateSupport, d.NextState)
		assert.Equal(t, ActionAcknowledge, d.Action)
		assert.Equal(t, "acknowledgment", d.ResponseType)
		assert.Equal(t, 0.3, d.Confidence)
		assert.False(t, d.ShouldEscalate)
	})
}

func TestFallbackEscalation(t *testing.T) {
	tests := []struct {
		name             string
		messageCount     int
		sentimentHistory []string
		current          State
		currentSentiment string
		wantScore        float64
		wantEscalate     bool
		wantUrgency      Urgency
		wantReason       string
	}{
		{
			name:             "AllUserIndicators",
			messageCount:     11,
			sentimentHistory: []string{"neutral", "negative", "negative", "negative"},
			current:          StateProblemSolving,
			currentSentiment: "negative",
			wantScore:        0.9,
			wantEscalate:     true,
			wantUrgency:      UrgencyHigh,
			wantReason:       "long conversation; multiple negative sentiments; current negative sentiment",
		},
		{
			name:             "EscalationStateAlone",
			messageCount:     3,
			sentimentHistory: []string{"neutral"},
			current:          StateEscalation,
			currentSentiment: "neutral",
			wantScore:        0.5,
			wantEscalate:     false,
			wantUrgency:      UrgencyMedium,
			wantReason:       "already in escalation state",
		},
		{
			name:             "NoIndicators",
			messageCount:     2,
			sentimentHistory: []string{"positive"},
			current:          StateGreeting,
			currentSentiment: "positive",
			wantScore:        0,
			wantEscalate:     false,
			wantUrgency:      UrgencyLow,
			wantReason:       "no strong escalation indicators",
		},
		{
			name:             "TwoNegativesNotEnough",
			messageCount:     5,
			sentimentHistory: []string{"negative", "negative"},
			current:          StateSupport,
			currentSentiment: "neutral",
			wantScore:        0,
			wantEscalate:     false,
			wantUrgency:      UrgencyLow,
			wantReason:       "no strong escalation indicators",
		},
		{
			name:             "CurrentNegativeOnly",
			messageCount:     4,
			sentimentHistory: []string{"neutral"},
			current:          StateSupport,
			currentSentiment: "negative",
			wantScore:        0.3,
			wantEscalate:     false,
			wantUrgency:      UrgencyLow,
			wantReason:       "current negative sentiment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FallbackEscalation(tt.messageCount, tt.sentimentHistory, tt.current, tt.currentSentiment)
			assert.InDelta(t, tt.wantScore, r.EscalationScore, 1e-9)
			assert.Equal(t, tt.wantEscalate, r.ShouldEscalate)
			assert.Equal(t, tt.wantUrgency, r.Urgency)
			assert.Equal(t, tt.wantReason, r.Reason)
			assert.Equal(t, "general", r.SuggestedAgentType)
			assert.True(t, r.Fallback)
		})
	}

	t.Run("PureFunction", func(t *testing.T) {
		history := []string{"negative", "neutral", "negative"}
		first := FallbackEscalation(12, history, StateSupport, "negative")
		second := FallbackEscalation(12, history, StateSupport, "negative")
		assert.Equal(t, first, second)
	})
}

func TestShouldEnterPolicyInquiry(t *testing.T) {
	tests := []struct {
		name    string
		message string
		intent  string
		want    bool
	}{
		{"PolicyIntent", "whatever", "policy_inquiry", true},
		{"RefundKeyword", "I want a REFUND for this order", "complaint", true},
		{"WarrantyKeyword", "does it come with a warranty?", "product_inquiry", true},
		{"NoPolicySignal", "where is my package", "order_status", false},
		{"EmptyMessage", "", "greeting", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEnterPolicyInquiry(tt.message, tt.intent))
		})
	}
}
