package testutils

import (
	"context"
	"sync"

	"github.com/noorlabs/mishkat/pkg/llm"
)

// StrategyCall records one invocation of a mock strategy.
type StrategyCall struct {
	APIKey string
}

// MockStrategy is a scriptable call strategy. Responses are consumed in
// order; once exhausted the last entry repeats.
type MockStrategy struct {
	StrategyName string
	Responses    []MockOutcome

	mu    sync.Mutex
	calls []StrategyCall
}

// MockOutcome is one scripted strategy result.
type MockOutcome struct {
	Response *llm.ChatResponse
	Err      error
}

func NewMockStrategy(name string, outcomes ...MockOutcome) *MockStrategy {
	return &MockStrategy{
		StrategyName: name,
		Responses:    outcomes,
	}
}

func (m *MockStrategy) Name() string {
	return m.StrategyName
}

func (m *MockStrategy) Complete(_ context.Context, _ *llm.ChatRequest, apiKey string) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, StrategyCall{APIKey: apiKey})

	if len(m.Responses) == 0 {
		return &llm.ChatResponse{Message: llm.NewMessage("assistant", "ok")}, nil
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}

	outcome := m.Responses[idx]
	return outcome.Response, outcome.Err
}

// Calls returns a copy of the recorded invocations.
func (m *MockStrategy) Calls() []StrategyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StrategyCall(nil), m.calls...)
}
