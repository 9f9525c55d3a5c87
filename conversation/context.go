// Package conversation owns the live, mutable per-conversation state and its
// trimming policy. One context exists per conversation id and is mutated only
// through the Manager.
package conversation

import (
	"time"

	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/nlu"
)

// Turn is one entry in the bounded context window.
type Turn struct {
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  int64     `json:"sequence_number"`
}

// Context is the live state of one conversation. Previous states and
// extracted entities are append-only; the window is bounded by count and age.
type Context struct {
	ConversationID string
	UserID         string

	CurrentState   dialogue.State
	PreviousStates []dialogue.State

	MessageCount int
	SessionStart time.Time
	LastActivity time.Time

	Window       []Turn
	LastSequence int64

	Entities         []nlu.Entity
	Goals            []string
	ResolvedTopics   []string
	PendingQuestions []string
	SentimentHistory []string

	EscalationTriggers []string
	Metadata           map[string]any
}

// Clone returns a deep copy safe to read outside the manager's locks.
func (c *Context) Clone() *Context {
	out := *c
	out.PreviousStates = append([]dialogue.State(nil), c.PreviousStates...)
	out.Window = append([]Turn(nil), c.Window...)
	out.Entities = append([]nlu.Entity(nil), c.Entities...)
	out.Goals = append([]string(nil), c.Goals...)
	out.ResolvedTopics = append([]string(nil), c.ResolvedTopics...)
	out.PendingQuestions = append([]string(nil), c.PendingQuestions...)
	out.SentimentHistory = append([]string(nil), c.SentimentHistory...)
	out.EscalationTriggers = append([]string(nil), c.EscalationTriggers...)
	out.Metadata = make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		out.Metadata[k] = v
	}
	return &out
}

// RecentTurns returns up to n of the most recent window entries.
func (c *Context) RecentTurns(n int) []Turn {
	if n <= 0 || len(c.Window) == 0 {
		return nil
	}
	if n > len(c.Window) {
		n = len(c.Window)
	}
	out := make([]Turn, n)
	copy(out, c.Window[len(c.Window)-n:])
	return out
}

// RecentSentiments returns up to n of the most recent sentiment labels.
func (c *Context) RecentSentiments(n int) []string {
	if n <= 0 || len(c.SentimentHistory) == 0 {
		return nil
	}
	if n > len(c.SentimentHistory) {
		n = len(c.SentimentHistory)
	}
	out := make([]string, n)
	copy(out, c.SentimentHistory[len(c.SentimentHistory)-n:])
	return out
}

// SessionDuration is the elapsed time between session start and last activity.
func (c *Context) SessionDuration() time.Duration {
	return c.LastActivity.Sub(c.SessionStart)
}

// StateFlow returns the full state history including the current state.
func (c *Context) StateFlow() []string {
	flow := make([]string, 0, len(c.PreviousStates)+1)
	for _, s := range c.PreviousStates {
		flow = append(flow, s.String())
	}
	return append(flow, c.CurrentState.String())
}
