// Package llm defines the language-model collaborator contract used by the
// decision engine and escalation analyzer, and an OpenAI-compatible provider.
package llm

import "context"

// Request is a single structured-output completion request.
type Request struct {
	// SystemInstructions frame the model's role for this call.
	SystemInstructions string
	// Prompt is the structured prompt text for the current turn.
	Prompt string
	// Temperature controls sampling randomness.
	Temperature float32
	// MaxOutputTokens caps the completion length.
	MaxOutputTokens int
}

// Service is the language-model collaborator. Implementations must honor the
// caller-supplied context deadline; a timeout is reported as an ordinary
// error and handled identically to any other collaborator failure.
type Service interface {
	// Complete sends a completion request and returns the raw response text.
	// The response may be a bare JSON object or free text containing one.
	Complete(ctx context.Context, req Request) (string, error)
}
