package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/llm"
	"github.com/parrotflow/converse/nlu"
	"github.com/parrotflow/converse/timeout"
)

// EscalationAnalyzer decides whether a conversation needs a human agent.
// Like the decision engine, it never errors: any failure degrades to the
// rule-based scoring fallback.
type EscalationAnalyzer struct {
	llm llm.Service
}

// NewEscalationAnalyzer creates an analyzer backed by the given LLM service.
func NewEscalationAnalyzer(svc llm.Service) *EscalationAnalyzer {
	return &EscalationAnalyzer{llm: svc}
}

type escalationWire struct {
	ShouldEscalate     bool    `json:"should_escalate"`
	Urgency            string  `json:"urgency"`
	Reason             string  `json:"reason"`
	SuggestedAgentType string  `json:"suggested_agent_type"`
	CustomerSentiment  string  `json:"customer_sentiment"`
	EscalationScore    float64 `json:"escalation_score"`
}

// Analyze produces an escalation report for the latest turn.
func (a *EscalationAnalyzer) Analyze(ctx context.Context, c *conversation.Context, userMessage string, res nlu.Result) *dialogue.EscalationReport {
	ctx, cancel := context.WithTimeout(ctx, timeout.EscalationTimeout)
	defer cancel()

	raw, err := a.llm.Complete(ctx, llm.Request{
		SystemInstructions: escalationAnalysisPrompt,
		Prompt:             buildEscalationPrompt(c, userMessage, res),
		Temperature:        0.1,
		MaxOutputTokens:    300,
	})
	if err != nil {
		return a.fallback(c, res, fmt.Errorf("%w: %v", dialogue.ErrExternalService, err))
	}

	report, err := a.parse(raw)
	if err != nil {
		return a.fallback(c, res, err)
	}
	return report
}

func (a *EscalationAnalyzer) parse(raw string) (*dialogue.EscalationReport, error) {
	payload := llm.ExtractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", dialogue.ErrMalformedResponse)
	}

	var wire escalationWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", dialogue.ErrMalformedResponse, err)
	}

	urgency := dialogue.Urgency(wire.Urgency)
	if !urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", dialogue.ErrMalformedResponse, wire.Urgency)
	}
	if wire.EscalationScore < 0 || wire.EscalationScore > 1 {
		return nil, fmt.Errorf("%w: escalation score %v out of range", dialogue.ErrMalformedResponse, wire.EscalationScore)
	}

	return &dialogue.EscalationReport{
		ShouldEscalate:     wire.ShouldEscalate,
		Urgency:            urgency,
		Reason:             wire.Reason,
		SuggestedAgentType: wire.SuggestedAgentType,
		CustomerSentiment:  wire.CustomerSentiment,
		EscalationScore:    wire.EscalationScore,
	}, nil
}

func (a *EscalationAnalyzer) fallback(c *conversation.Context, res nlu.Result, cause error) *dialogue.EscalationReport {
	slog.Warn("escalation analysis degraded to fallback",
		"conversation_id", c.ConversationID,
		"current_state", c.CurrentState,
		"error", cause)

	report := dialogue.FallbackEscalation(c.MessageCount, c.SentimentHistory, c.CurrentState, res.Sentiment)
	report.FallbackCause = dialogue.FallbackCause(cause)
	return &report
}
