// Package timeout defines centralized timeout and limit constants for the
// turn pipeline and its collaborators.
package timeout

import "time"

const (
	// DecisionTimeout bounds the model call made by the decision engine.
	DecisionTimeout = 10 * time.Second

	// EscalationTimeout bounds the model call made by the escalation analyzer.
	EscalationTimeout = 10 * time.Second

	// EmbeddingTimeout bounds embedding generation for memory segments.
	EmbeddingTimeout = 30 * time.Second

	// SaveTimeout bounds a full conversation save transaction.
	SaveTimeout = 15 * time.Second

	// PromptPreviewRunes is the per-message truncation length used when
	// rendering window entries into a prompt.
	PromptPreviewRunes = 100

	// PromptWindowMessages is the number of recent window entries included in
	// a decision prompt.
	PromptWindowMessages = 6
)
