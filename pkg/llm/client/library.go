package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/noorlabs/mishkat/pkg/llm"
)

// LibraryStrategy executes chat completions through the go-openai client
// library. It is the secondary strategy: a different HTTP stack and response
// decoder than the direct strategy, so the two fail independently.
type LibraryStrategy struct {
	baseURL string
}

// LibraryConfig holds configuration for the library strategy.
type LibraryConfig struct {
	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string
}

// NewLibrary creates the go-openai call strategy.
func NewLibrary(c LibraryConfig) *LibraryStrategy {
	return &LibraryStrategy{baseURL: c.BaseURL}
}

// Name returns the strategy name.
func (s *LibraryStrategy) Name() string { return "library" }

// Complete executes the request via go-openai. The client is constructed per
// call because the API key rotates between attempts.
func (s *LibraryStrategy) Complete(ctx context.Context, req *llm.ChatRequest, apiKey string) (*llm.ChatResponse, error) {
	cfg := goopenai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL + "/v1"
	}
	oc := goopenai.NewClientWithConfig(cfg)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := oc.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, classifyLibraryError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, retryable(0, fmt.Errorf("%w: no choices", llm.ErrInvalidResponse))
	}

	out := &llm.ChatResponse{
		Model:      resp.Model,
		CreatedAt:  time.Now(),
		Message:    llm.NewMessage(resp.Choices[0].Message.Role, resp.Choices[0].Message.Content),
		StopReason: string(resp.Choices[0].FinishReason),
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if err := out.Validate(); err != nil {
		return nil, retryable(0, err)
	}

	return out, nil
}

func classifyLibraryError(err error) *CallError {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 && apiErr.Type == "insufficient_quota" {
			return authFailure(apiErr.HTTPStatusCode, err)
		}
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}

	return retryable(0, err)
}

var _ Strategy = (*LibraryStrategy)(nil)
