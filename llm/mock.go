package llm

import (
	"context"
	"sync"
)

// MockService is a scriptable Service implementation for tests.
type MockService struct {
	mu sync.Mutex

	// Response is returned by Complete when CompleteFunc is nil.
	Response string
	// Err is returned by Complete when CompleteFunc is nil.
	Err error
	// CompleteFunc overrides the canned behavior when set.
	CompleteFunc func(ctx context.Context, req Request) (string, error)

	// Requests records every request received, in order.
	Requests []Request
}

var _ Service = (*MockService)(nil)

// Complete returns the scripted response after recording the request.
func (m *MockService) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fn := m.CompleteFunc
	resp, err := m.Response, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// CallCount returns the number of Complete calls received.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
