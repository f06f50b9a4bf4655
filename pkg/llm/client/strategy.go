package client

import (
	"context"

	"github.com/noorlabs/mishkat/pkg/llm"
)

// Strategy is one way of executing a chat completion against the upstream
// provider. The direct HTTP call and the client-library call exist side by
// side because either can fail for strategy-specific reasons (response
// parsing, transport quirks) uncorrelated with the other.
type Strategy interface {
	// Name returns the strategy name used in attempt records.
	Name() string

	// Complete executes the request with the given API key. Failures should
	// be returned as *CallError so the state machine can classify them;
	// unclassified errors are treated as retryable.
	Complete(ctx context.Context, req *llm.ChatRequest, apiKey string) (*llm.ChatResponse, error)
}
