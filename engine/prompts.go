package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/nlu"
	"github.com/parrotflow/converse/timeout"
)

const stateManagementPrompt = `You are an AI dialogue manager for an e-commerce customer service system.

Your task is to analyze the current conversation state and determine the next appropriate action.

Current Dialogue States:
- greeting: Initial conversation start, user introduction
- information_gathering: Collecting information about user needs
- problem_solving: Working to resolve user issues
- transaction: Handling purchase-related actions
- support: Providing technical or account support
- policy_inquiry: Answering questions about shop policies (refund, shipping, privacy, etc.)
- escalation: Preparing to transfer to human agent
- conclusion: Wrapping up the conversation
- idle: Conversation pause or user disengagement

Consider the context, user intent, entities, and conversation history to make your decision.

Respond with a single JSON object:
{
  "next_state": "one of the states above",
  "action": "provide_information|ask_question|clarify|acknowledge|escalate|transfer|end_conversation|request_more_info|offer_help",
  "response_type": "short label for the kind of response",
  "should_escalate": boolean,
  "confidence": 0.0-1.0,
  "reasoning": "why this decision",
  "suggested_response": "optional response template",
  "follow_up_questions": ["optional follow-up questions"]
}`

const escalationAnalysisPrompt = `You are an AI system that determines when a conversation should be escalated to a human agent.

Analyze the conversation context and determine if escalation is necessary based on:
1. User frustration or anger
2. Complex technical issues beyond AI capabilities
3. Account security concerns
4. Legal or policy violations
5. Multiple failed resolution attempts
6. User explicitly requesting human agent

Consider the urgency and complexity of the situation.`

const responseGenerationPrompt = `You are a helpful AI customer service assistant for an e-commerce platform.

Generate a natural, conversational response that:
1. Addresses the user's current need or question
2. Maintains the appropriate conversation tone
3. Provides helpful information or next steps
4. Encourages continued engagement if appropriate
5. Matches the expected response style for the context

Be conversational, empathetic, and professional.`

// buildDecisionPrompt assembles the user prompt for a dialogue decision:
// context summary, current message, NLU analysis, and a truncated recent
// history window.
func buildDecisionPrompt(c *conversation.Context, userMessage string, res nlu.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current Context:\n")
	fmt.Fprintf(&b, "- Current State: %s\n", c.CurrentState)
	fmt.Fprintf(&b, "- Message Count: %d\n", c.MessageCount)
	fmt.Fprintf(&b, "- Session Duration: %.0f seconds\n\n", c.SessionDuration().Seconds())

	fmt.Fprintf(&b, "User Message: %q\n\n", userMessage)

	fmt.Fprintf(&b, "NLU Analysis:\n")
	fmt.Fprintf(&b, "- Intent: %s\n", valueOr(res.Intent, "unknown"))
	fmt.Fprintf(&b, "- Entities: %s\n", formatEntities(res.Entities))
	fmt.Fprintf(&b, "- Sentiment: %s\n", res.SentimentOrDefault())
	fmt.Fprintf(&b, "- Confidence: %.2f\n\n", res.Confidence)

	fmt.Fprintf(&b, "Recent Conversation History:\n")
	writeHistory(&b, c.RecentTurns(timeout.PromptWindowMessages))

	fmt.Fprintf(&b, "\nConversation Goals: %s\n", formatList(c.Goals))
	fmt.Fprintf(&b, "Resolved Topics: %s\n", formatList(c.ResolvedTopics))
	fmt.Fprintf(&b, "Pending Questions: %s\n\n", formatList(c.PendingQuestions))

	b.WriteString("Make a decision about the next action and state. Consider the user's intent, sentiment, and the conversation flow.\n")
	return b.String()
}

// buildEscalationPrompt assembles the user prompt for escalation analysis.
func buildEscalationPrompt(c *conversation.Context, userMessage string, res nlu.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze if this conversation should be escalated to a human agent.\n\n")
	fmt.Fprintf(&b, "Context:\n")
	fmt.Fprintf(&b, "- Current State: %s\n", c.CurrentState)
	fmt.Fprintf(&b, "- Message Count: %d\n", c.MessageCount)
	fmt.Fprintf(&b, "- Previous Escalations: %d\n", len(c.EscalationTriggers))
	fmt.Fprintf(&b, "- Sentiment History: %s\n\n", formatList(c.SentimentHistory))

	fmt.Fprintf(&b, "Current Message: %q\n", userMessage)
	fmt.Fprintf(&b, "NLU Sentiment: %s\n", res.SentimentOrDefault())
	fmt.Fprintf(&b, "NLU Confidence: %.2f\n\n", res.Confidence)

	fmt.Fprintf(&b, "Recent Messages:\n")
	writeHistory(&b, c.RecentTurns(5))

	b.WriteString(`
Return JSON with:
{
    "should_escalate": boolean,
    "urgency": "low|medium|high|urgent",
    "reason": "explanation",
    "suggested_agent_type": "technical|billing|general|supervisor",
    "customer_sentiment": "positive|neutral|negative|angry",
    "escalation_score": 0.0-1.0
}
`)
	return b.String()
}

// buildResponsePrompt assembles the prompt for rendering the assistant reply
// from a decision.
func buildResponsePrompt(c *conversation.Context, d *dialogue.Decision, userMessage string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a response for this conversation:\n\n")
	fmt.Fprintf(&b, "Current State: %s\n", c.CurrentState)
	fmt.Fprintf(&b, "Next Action: %s\n", d.Action)
	fmt.Fprintf(&b, "Response Type: %s\n\n", d.ResponseType)

	fmt.Fprintf(&b, "User said: %q\n\n", userMessage)

	fmt.Fprintf(&b, "Conversation Context:\n")
	fmt.Fprintf(&b, "- Goals: %s\n", formatList(c.Goals))
	fmt.Fprintf(&b, "- Resolved: %s\n", formatList(c.ResolvedTopics))
	fmt.Fprintf(&b, "- Sentiment trend: %s\n\n", formatList(c.RecentSentiments(5)))

	fmt.Fprintf(&b, "Guidance:\n%s\n\n", d.Reasoning)
	fmt.Fprintf(&b, "Follow-up questions to consider: %s\n\n", formatList(d.FollowUpQuestions))

	b.WriteString("Generate a natural, helpful response that fits the context and advances the conversation.\n")
	return b.String()
}

// writeHistory appends turns as "- role: content..." lines, truncating each
// content to the preview length. Truncation is rune-safe.
func writeHistory(b *strings.Builder, turns []conversation.Turn) {
	for _, turn := range turns {
		fmt.Fprintf(b, "- %s: %s...\n", turn.Role, truncateRunes(turn.Content, timeout.PromptPreviewRunes))
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func formatEntities(entities []nlu.Entity) string {
	if len(entities) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		parts = append(parts, fmt.Sprintf("%s (%s)", e.Text, e.Label))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
