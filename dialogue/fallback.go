package dialogue

import "strings"

// Escalation scoring weights and thresholds for the deterministic rule.
const (
	weightLongConversation  = 0.2
	weightRepeatedNegatives = 0.4
	weightCurrentNegative   = 0.3
	weightEscalationState   = 0.5

	escalateThreshold = 0.7
	mediumThreshold   = 0.4

	longConversationCount = 10
	repeatedNegativeCount = 3
)

// FallbackDecision is the deterministic, model-independent decision. It is a
// pure function of the conversation's message count and current state.
func FallbackDecision(messageCount int, current State) Decision {
	if messageCount == 1 {
		return Decision{
			NextState:         StateInformationGathering,
			Action:            ActionAskQuestion,
			ResponseType:      "greeting_followup",
			ShouldEscalate:    false,
			Confidence:        0.5,
			Reasoning:         "fallback: new conversation",
			SuggestedResponse: "I'd be happy to help you! Could you tell me more about what you need?",
			Fallback:          true,
		}
	}
	return Decision{
		NextState:         current,
		Action:            ActionAcknowledge,
		ResponseType:      "acknowledgment",
		ShouldEscalate:    false,
		Confidence:        0.3,
		Reasoning:         "fallback: maintaining state",
		SuggestedResponse: "I understand. Let me help you with that.",
		Fallback:          true,
	}
}

// FallbackEscalation is the deterministic escalation rule. It is a pure
// function of its four inputs and produces the same score for identical input.
func FallbackEscalation(messageCount int, sentimentHistory []string, current State, currentSentiment string) EscalationReport {
	score := 0.0
	var reasons []string

	if messageCount > longConversationCount {
		score += weightLongConversation
		reasons = append(reasons, "long conversation")
	}

	negatives := 0
	for _, s := range sentimentHistory {
		if s == "negative" {
			negatives++
		}
	}
	if negatives >= repeatedNegativeCount {
		score += weightRepeatedNegatives
		reasons = append(reasons, "multiple negative sentiments")
	}

	if currentSentiment == "negative" {
		score += weightCurrentNegative
		reasons = append(reasons, "current negative sentiment")
	}

	if current == StateEscalation {
		score += weightEscalationState
		reasons = append(reasons, "already in escalation state")
	}

	reason := "no strong escalation indicators"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	urgency := UrgencyLow
	switch {
	case score >= escalateThreshold:
		urgency = UrgencyHigh
	case score >= mediumThreshold:
		urgency = UrgencyMedium
	}

	sentiment := currentSentiment
	if sentiment == "" {
		sentiment = "neutral"
	}

	return EscalationReport{
		ShouldEscalate:     score >= escalateThreshold,
		Urgency:            urgency,
		Reason:             reason,
		SuggestedAgentType: "general",
		CustomerSentiment:  sentiment,
		EscalationScore:    score,
		Fallback:           true,
	}
}
