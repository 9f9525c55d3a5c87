package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/llm"
	"github.com/parrotflow/converse/nlu"
)

// MemoryWriter persists a finished or checkpointed conversation.
// Implemented by the memory service; nil disables persistence.
type MemoryWriter interface {
	Save(ctx context.Context, c *conversation.Context) (bool, error)
}

// TurnInput carries everything needed to process one user turn.
type TurnInput struct {
	ConversationID string
	UserID         string
	UserMessage    string
	NLU            nlu.Result
}

// TurnResult is the outcome of one processed turn: the post-update context
// snapshot, the dialogue decision, and the escalation report.
type TurnResult struct {
	Context    *conversation.Context
	Decision   *dialogue.Decision
	Escalation *dialogue.EscalationReport
}

// Engine orchestrates a full dialogue turn: context update, decision,
// escalation analysis, and state advancement. Turns for the same
// conversation are serialized; different conversations run concurrently.
type Engine struct {
	manager     *conversation.Manager
	decisions   *DecisionEngine
	escalations *EscalationAnalyzer
	llm         llm.Service
	memory      MemoryWriter

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a dialogue engine. memory may be nil when persistence is not
// configured.
func New(manager *conversation.Manager, svc llm.Service, memory MemoryWriter) *Engine {
	return &Engine{
		manager:     manager,
		decisions:   NewDecisionEngine(svc),
		escalations: NewEscalationAnalyzer(svc),
		llm:         svc,
		memory:      memory,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Manager exposes the underlying context manager.
func (e *Engine) Manager() *conversation.Manager {
	return e.manager
}

func (e *Engine) lock(conversationID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[conversationID] = l
	}
	return l
}

// ProcessTurn runs the turn pipeline for one user message. The context is
// updated before the decision so that the first turn sees message_count 1.
// ProcessTurn never fails on model errors; it degrades to fallbacks.
func (e *Engine) ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	l := e.lock(in.ConversationID)
	l.Lock()
	defer l.Unlock()

	e.manager.GetOrCreate(in.ConversationID, in.UserID)
	c := e.manager.Update(in.ConversationID, in.UserMessage, in.NLU, "")

	var decision *dialogue.Decision
	if dialogue.ShouldEnterPolicyInquiry(in.UserMessage, in.NLU.Intent) {
		// Policy questions route deterministically; the state graph admits
		// policy_inquiry from every state.
		e.manager.AddGoal(in.ConversationID, "policy")
		e.manager.AddPendingQuestion(in.ConversationID, in.UserMessage)
		decision = &dialogue.Decision{
			NextState:    dialogue.StatePolicyInquiry,
			Action:       dialogue.ActionProvideInformation,
			ResponseType: "policy_answer",
			Confidence:   0.9,
			Reasoning:    "policy-related inquiry detected",
		}
	} else {
		decision = e.decisions.Decide(ctx, c, in.UserMessage, in.NLU)
	}

	escalation := e.escalations.Analyze(ctx, c, in.UserMessage, in.NLU)
	if escalation.ShouldEscalate && !decision.ShouldEscalate {
		decision.ShouldEscalate = true
		e.manager.AddEscalationTrigger(in.ConversationID, escalation.Reason)
	}

	if decision.NextState != c.CurrentState {
		if err := e.manager.AdvanceState(in.ConversationID, decision.NextState); err != nil {
			// The decision was validated against a snapshot; a concurrent
			// transition can still invalidate it. Stay in place.
			slog.Warn("state advance rejected",
				"conversation_id", in.ConversationID,
				"next_state", decision.NextState,
				"error", err)
			decision.NextState = c.CurrentState
		}
	}

	snapshot, _ := e.manager.Snapshot(in.ConversationID)
	return &TurnResult{
		Context:    snapshot,
		Decision:   decision,
		Escalation: escalation,
	}, nil
}

// RenderResponse generates the assistant reply for a decision and records it
// in the context window. Model failures fall back to the decision's
// suggested response.
func (e *Engine) RenderResponse(ctx context.Context, conversationID, userMessage string, decision *dialogue.Decision) string {
	c, ok := e.manager.Snapshot(conversationID)
	if !ok {
		return fallbackResponse(decision)
	}

	reply, err := e.llm.Complete(ctx, llm.Request{
		SystemInstructions: responseGenerationPrompt,
		Prompt:             buildResponsePrompt(c, decision, userMessage),
		Temperature:        0.7,
		MaxOutputTokens:    400,
	})
	if err != nil || reply == "" {
		slog.Warn("response generation degraded to suggested response",
			"conversation_id", conversationID, "error", err)
		reply = fallbackResponse(decision)
	}

	e.manager.RecordAssistantTurn(conversationID, reply)
	return reply
}

func fallbackResponse(decision *dialogue.Decision) string {
	if decision != nil && decision.SuggestedResponse != "" {
		return decision.SuggestedResponse
	}
	return "I'm here to help you with that."
}

// EndConversation synthesizes and persists the conversation memory, then
// drops the live context. Persistence failures leave the context in place so
// the caller can retry.
func (e *Engine) EndConversation(ctx context.Context, conversationID string) (bool, error) {
	l := e.lock(conversationID)
	l.Lock()
	defer l.Unlock()

	c, ok := e.manager.Snapshot(conversationID)
	if !ok {
		return false, nil
	}

	if e.memory != nil {
		saved, err := e.memory.Save(ctx, c)
		if err != nil {
			return false, err
		}
		if !saved {
			return false, nil
		}
	}

	e.manager.Remove(conversationID)
	e.mu.Lock()
	delete(e.locks, conversationID)
	e.mu.Unlock()
	return true, nil
}
