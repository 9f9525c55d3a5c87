package embedding

import (
	"context"
	"sync"
)

// MockEmbedder is a scriptable Embedder for tests.
type MockEmbedder struct {
	mu sync.Mutex

	// Vector is returned by Embed when EmbedFunc is nil.
	Vector []float32
	// Err is returned by Embed when EmbedFunc is nil.
	Err error
	// EmbedFunc overrides the canned behavior when set.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	// Inputs records every text received, in order.
	Inputs []string
}

var _ Embedder = (*MockEmbedder)(nil)

// Embed returns the scripted vector after recording the input.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Inputs = append(m.Inputs, text)
	fn := m.EmbedFunc
	vec, err := m.Vector, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return vec, err
}
