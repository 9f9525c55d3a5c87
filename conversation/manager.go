package conversation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/nlu"
)

const (
	// DefaultMaxWindowLength is the default context window entry cap.
	DefaultMaxWindowLength = 20
	// DefaultMaxWindowAge is the default maximum entry age.
	DefaultMaxWindowAge = 24 * time.Hour
)

// Manager is the keyed registry of live conversation contexts. Mutations to a
// single context are serialized by a per-context mutex; operations on
// different conversation ids proceed in parallel. No lock spans more than one
// conversation's update.
type Manager struct {
	maxWindowLength int
	maxWindowAge    time.Duration

	mu       sync.RWMutex
	contexts map[string]*managed

	now func() time.Time
}

type managed struct {
	mu  sync.Mutex
	ctx *Context
}

// NewManager creates a context manager with the given trimming policy.
// Non-positive values fall back to the defaults.
func NewManager(maxWindowLength int, maxWindowAge time.Duration) *Manager {
	if maxWindowLength <= 0 {
		maxWindowLength = DefaultMaxWindowLength
	}
	if maxWindowAge <= 0 {
		maxWindowAge = DefaultMaxWindowAge
	}
	return &Manager{
		maxWindowLength: maxWindowLength,
		maxWindowAge:    maxWindowAge,
		contexts:        make(map[string]*managed),
		now:             time.Now,
	}
}

// GetOrCreate returns a copy of the live context for conversationID, creating
// a default one (state GREETING, empty collections) when none exists.
func (m *Manager) GetOrCreate(conversationID, userID string) *Context {
	entry := m.entry(conversationID, userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ctx.Clone()
}

// entry returns the managed entry for conversationID, creating it if needed.
func (m *Manager) entry(conversationID, userID string) *managed {
	m.mu.RLock()
	entry, ok := m.contexts[conversationID]
	m.mu.RUnlock()
	if ok {
		return entry
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok = m.contexts[conversationID]; ok {
		return entry
	}

	now := m.now()
	entry = &managed{ctx: &Context{
		ConversationID: conversationID,
		UserID:         userID,
		CurrentState:   dialogue.StateGreeting,
		SessionStart:   now,
		LastActivity:   now,
		Metadata:       make(map[string]any),
	}}
	m.contexts[conversationID] = entry
	return entry
}

// Update appends the user turn (and the assistant turn when present) with
// strictly increasing sequence numbers, merges NLU entities, appends the
// sentiment label, bumps the message counter, and applies the trimming
// policy. Apply-then-trim happens as one step under the context's lock.
func (m *Manager) Update(conversationID, userMessage string, res nlu.Result, assistantResponse string) *Context {
	entry := m.entry(conversationID, "")
	entry.mu.Lock()
	defer entry.mu.Unlock()

	c := entry.ctx
	now := m.now()

	c.MessageCount++
	c.LastActivity = now

	c.LastSequence++
	c.Window = append(c.Window, Turn{
		Role:      "user",
		Content:   userMessage,
		Timestamp: now,
		Sequence:  c.LastSequence,
	})
	if assistantResponse != "" {
		c.LastSequence++
		c.Window = append(c.Window, Turn{
			Role:      "assistant",
			Content:   assistantResponse,
			Timestamp: now,
			Sequence:  c.LastSequence,
		})
	}

	c.Entities = append(c.Entities, res.Entities...)
	c.SentimentHistory = append(c.SentimentHistory, res.SentimentOrDefault())

	m.trim(c, now)
	return c.Clone()
}

// RecordAssistantTurn appends a rendered assistant response to the window.
// Used when the caller renders the response after the decision turn.
func (m *Manager) RecordAssistantTurn(conversationID, content string) *Context {
	entry := m.entry(conversationID, "")
	entry.mu.Lock()
	defer entry.mu.Unlock()

	c := entry.ctx
	now := m.now()
	c.LastActivity = now
	c.LastSequence++
	c.Window = append(c.Window, Turn{
		Role:      "assistant",
		Content:   content,
		Timestamp: now,
		Sequence:  c.LastSequence,
	})
	m.trim(c, now)
	return c.Clone()
}

// trim applies both passes of the trimming policy: entry count, then entry
// age. Both are monotone filters over the same sequence, so order does not
// affect the final set; both run on every update.
func (m *Manager) trim(c *Context, now time.Time) {
	if len(c.Window) > m.maxWindowLength {
		c.Window = append(c.Window[:0:0], c.Window[len(c.Window)-m.maxWindowLength:]...)
	}

	cutoff := now.Add(-m.maxWindowAge)
	kept := c.Window[:0]
	for _, turn := range c.Window {
		if turn.Timestamp.After(cutoff) {
			kept = append(kept, turn)
		}
	}
	c.Window = kept
}

// AdvanceState appends the current state to the history and moves the
// conversation to next. The transition must be legal per the dialogue graph.
func (m *Manager) AdvanceState(conversationID string, next dialogue.State) error {
	entry := m.entry(conversationID, "")
	entry.mu.Lock()
	defer entry.mu.Unlock()

	c := entry.ctx
	if next == c.CurrentState {
		return nil
	}
	if !dialogue.ValidateTransition(c.CurrentState, next) {
		return fmt.Errorf("%w: %s -> %s", dialogue.ErrInvalidTransition, c.CurrentState, next)
	}

	c.PreviousStates = append(c.PreviousStates, c.CurrentState)
	c.CurrentState = next
	return nil
}

// AddGoal records a conversation goal once.
func (m *Manager) AddGoal(conversationID, goal string) {
	m.mutate(conversationID, func(c *Context) {
		c.Goals = appendUnique(c.Goals, goal)
	})
}

// AddPendingQuestion records an open question once.
func (m *Manager) AddPendingQuestion(conversationID, question string) {
	m.mutate(conversationID, func(c *Context) {
		c.PendingQuestions = appendUnique(c.PendingQuestions, question)
	})
}

// MarkResolved moves a topic into the resolved set and drops any matching
// pending question.
func (m *Manager) MarkResolved(conversationID, topic string) {
	m.mutate(conversationID, func(c *Context) {
		c.ResolvedTopics = appendUnique(c.ResolvedTopics, topic)
		kept := c.PendingQuestions[:0]
		for _, q := range c.PendingQuestions {
			if q != topic {
				kept = append(kept, q)
			}
		}
		c.PendingQuestions = kept
	})
}

// AddEscalationTrigger records a trigger description.
func (m *Manager) AddEscalationTrigger(conversationID, trigger string) {
	m.mutate(conversationID, func(c *Context) {
		c.EscalationTriggers = append(c.EscalationTriggers, trigger)
	})
}

func (m *Manager) mutate(conversationID string, fn func(*Context)) {
	entry := m.entry(conversationID, "")
	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(entry.ctx)
}

// Snapshot returns a copy of the context, or false when none is live.
func (m *Manager) Snapshot(conversationID string) (*Context, bool) {
	m.mu.RLock()
	entry, ok := m.contexts[conversationID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ctx.Clone(), true
}

// Remove drops the live context for conversationID.
func (m *Manager) Remove(conversationID string) {
	m.mu.Lock()
	delete(m.contexts, conversationID)
	m.mu.Unlock()
}

// Len returns the number of live contexts.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contexts)
}

// SweepIdle removes contexts with no activity for at least maxIdle. A context
// mid-update is never evicted: the sweep takes each context's own lock before
// checking it. Returns the number of contexts removed.
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.RLock()
	candidates := make(map[string]*managed, len(m.contexts))
	for id, entry := range m.contexts {
		candidates[id] = entry
	}
	m.mu.RUnlock()

	removed := 0
	for id, entry := range candidates {
		entry.mu.Lock()
		idle := entry.ctx.LastActivity.Before(cutoff)
		entry.mu.Unlock()
		if !idle {
			continue
		}

		m.mu.Lock()
		// Re-check under the map lock; the entry may have been touched.
		if current, ok := m.contexts[id]; ok && current == entry {
			current.mu.Lock()
			if current.ctx.LastActivity.Before(cutoff) {
				delete(m.contexts, id)
				removed++
				slog.Info("cleaned up idle conversation context", "conversation_id", id)
			}
			current.mu.Unlock()
		}
		m.mu.Unlock()
	}
	return removed
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
