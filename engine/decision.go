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

// DecisionEngine turns a conversation context plus the latest user message
// into a validated dialogue decision. Every failure mode degrades to the
// rule-based fallback; Decide never returns an error.
type DecisionEngine struct {
	llm llm.Service
}

// NewDecisionEngine creates a decision engine backed by the given LLM service.
func NewDecisionEngine(svc llm.Service) *DecisionEngine {
	return &DecisionEngine{llm: svc}
}

// decisionWire mirrors the JSON object the model is instructed to produce.
type decisionWire struct {
	NextState         string   `json:"next_state"`
	Action            string   `json:"action"`
	ResponseType      string   `json:"response_type"`
	ShouldEscalate    bool     `json:"should_escalate"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	SuggestedResponse string   `json:"suggested_response"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Decide proposes the next state and action for the conversation. The model
// proposal is validated against the state graph and enum domains; any model,
// parse, or validation failure falls back to the deterministic rules.
func (e *DecisionEngine) Decide(ctx context.Context, c *conversation.Context, userMessage string, res nlu.Result) *dialogue.Decision {
	ctx, cancel := context.WithTimeout(ctx, timeout.DecisionTimeout)
	defer cancel()

	raw, err := e.llm.Complete(ctx, llm.Request{
		SystemInstructions: stateManagementPrompt,
		Prompt:             buildDecisionPrompt(c, userMessage, res),
		Temperature:        0.1,
	})
	if err != nil {
		return e.fallback(c, fmt.Errorf("%w: %v", dialogue.ErrExternalService, err))
	}

	decision, err := e.parse(c, raw)
	if err != nil {
		return e.fallback(c, err)
	}
	return decision
}

func (e *DecisionEngine) parse(c *conversation.Context, raw string) (*dialogue.Decision, error) {
	payload := llm.ExtractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", dialogue.ErrMalformedResponse)
	}

	var wire decisionWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", dialogue.ErrMalformedResponse, err)
	}

	nextState, err := dialogue.ParseState(wire.NextState)
	if err != nil {
		return nil, err
	}
	action, err := dialogue.ParseAction(wire.Action)
	if err != nil {
		return nil, err
	}
	if wire.Confidence < 0 || wire.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", dialogue.ErrMalformedResponse, wire.Confidence)
	}
	if nextState != c.CurrentState && !dialogue.ValidateTransition(c.CurrentState, nextState) {
		return nil, fmt.Errorf("%w: %s -> %s", dialogue.ErrInvalidTransition, c.CurrentState, nextState)
	}

	return &dialogue.Decision{
		NextState:         nextState,
		Action:            action,
		ResponseType:      wire.ResponseType,
		ShouldEscalate:    wire.ShouldEscalate,
		Confidence:        wire.Confidence,
		Reasoning:         wire.Reasoning,
		SuggestedResponse: wire.SuggestedResponse,
		FollowUpQuestions: wire.FollowUpQuestions,
	}, nil
}

func (e *DecisionEngine) fallback(c *conversation.Context, cause error) *dialogue.Decision {
	slog.Warn("dialogue decision degraded to fallback",
		"conversation_id", c.ConversationID,
		"current_state", c.CurrentState,
		"error", cause)

	d := dialogue.FallbackDecision(c.MessageCount, c.CurrentState)
	d.FallbackCause = dialogue.FallbackCause(cause)
	return &d
}
