package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noorlabs/mishkat/pkg/llm"
)

// DefaultBaseURL is the default OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.openai.com"

// DirectStrategy executes chat completions as plain HTTP POSTs against an
// OpenAI-compatible /v1/chat/completions endpoint. It is the primary
// strategy: fewest layers between us and the wire.
type DirectStrategy struct {
	baseURL    string
	httpClient *http.Client
}

// DirectConfig holds configuration for the direct strategy.
type DirectConfig struct {
	// BaseURL overrides the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-attempt HTTP timeout. Defaults to 60s.
	Timeout time.Duration
}

// NewDirect creates the direct HTTP call strategy.
func NewDirect(c DirectConfig) *DirectStrategy {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &DirectStrategy{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the strategy name.
func (s *DirectStrategy) Name() string { return "direct" }

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionsResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      llm.Message `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete executes the request against /v1/chat/completions.
func (s *DirectStrategy) Complete(ctx context.Context, req *llm.ChatRequest, apiKey string) (*llm.ChatResponse, error) {
	messages := make([]llm.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, llm.NewMessage("system", req.System))
	}
	messages = append(messages, req.Messages...)

	payload, err := json.Marshal(chatCompletionsRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fatal(0, fmt.Errorf("marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fatal(0, fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, retryable(0, fmt.Errorf("sending request: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, retryable(httpResp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, s.classifyError(httpResp.StatusCode, body)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, retryable(httpResp.StatusCode, fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err))
	}

	if len(parsed.Choices) == 0 {
		return nil, retryable(httpResp.StatusCode, fmt.Errorf("%w: no choices", llm.ErrInvalidResponse))
	}

	resp := &llm.ChatResponse{
		Model:      parsed.Model,
		CreatedAt:  time.Now(),
		Message:    parsed.Choices[0].Message,
		StopReason: parsed.Choices[0].FinishReason,
		Usage:      parsed.Usage,
	}
	if err := resp.Validate(); err != nil {
		return nil, retryable(httpResp.StatusCode, err)
	}

	return resp, nil
}

// classifyError inspects the error body so quota exhaustion (a 429 that no
// amount of waiting fixes for this key) rotates the credential instead of
// burning the retry budget.
func (s *DirectStrategy) classifyError(status int, body []byte) *CallError {
	var parsed chatCompletionsResponse
	message := strings.TrimSpace(string(body))
	errType := ""
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		message = parsed.Error.Message
		errType = parsed.Error.Type
	}

	err := fmt.Errorf("upstream error: %s", message)

	if status == 429 && errType == "insufficient_quota" {
		return authFailure(status, err)
	}
	if errType == "content_policy_violation" {
		return fatal(status, err)
	}

	return classifyStatus(status, err)
}

var _ Strategy = (*DirectStrategy)(nil)
