package mocks

import (
	"context"
	"sync"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

// MockCompleter implements generation.Completer for testing.
type MockCompleter struct {
	// CompleteFn allows test cases to mock the Complete behavior
	CompleteFn func(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error)

	// Default response values
	Text string
	Err  error

	mu       sync.Mutex
	requests []generation.CompletionRequest
}

// Complete implements the generation.Completer interface.
func (m *MockCompleter) Complete(
	ctx context.Context,
	req generation.CompletionRequest,
) (*generation.CompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &generation.CompletionResponse{Text: m.Text}, nil
}

// CallCount returns how many times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request passed to Complete.
func (m *MockCompleter) Requests() []generation.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.CompletionRequest(nil), m.requests...)
}

// NewMockCompleterWithText creates a MockCompleter that always answers text.
func NewMockCompleterWithText(text string) *MockCompleter {
	return &MockCompleter{Text: text}
}

// NewMockCompleterWithError creates a MockCompleter that always fails with err.
func NewMockCompleterWithError(err error) *MockCompleter {
	return &MockCompleter{Err: err}
}
