package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/engine"
)

var (
	askToolName    = "ask"
	askDescription = "Ask a question about the Quran and its tafsir literature. Returns a cited answer grounded in retrieved verses and commentary. Filters can restrict retrieval to a surah or a verse range within it."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question       string `json:"question" jsonschema:"the natural language question to answer"`
	SurahFilter    int    `json:"surah_filter,omitempty" jsonschema:"restrict retrieval to this surah number"`
	VerseFilter    int    `json:"verse_filter,omitempty" jsonschema:"restrict retrieval to this verse (requires surah_filter)"`
	EndVerseFilter int    `json:"end_verse_filter,omitempty" jsonschema:"end of an inclusive verse range (requires verse_filter)"`
	TopK           int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default: 5)"`
}

// AskSource is one passage the answer is grounded in.
type AskSource struct {
	SourceType string `json:"source_type"`
	Reference  string `json:"reference"`
	Content    string `json:"content"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer         string                `json:"answer"`
	Sources        []AskSource           `json:"sources"`
	FiltersApplied engine.FiltersApplied `json:"filters_applied"`
	Degraded       bool                  `json:"degraded,omitempty"`
}

// handleAsk processes an ask request.
func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP ask request",
		zap.String("question", input.Question),
		zap.Int("surah_filter", input.SurahFilter),
	)

	resp, err := s.config.Answerer.Answer(ctx, engine.Request{
		Question:       input.Question,
		SurahFilter:    input.SurahFilter,
		VerseFilter:    input.VerseFilter,
		EndVerseFilter: input.EndVerseFilter,
		TopK:           input.TopK,
	})
	if err != nil {
		logger.Error("failed to answer question", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to answer question: %v", err)},
			},
		}, AskOutput{}, nil
	}

	sources := make([]AskSource, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		sources = append(sources, AskSource{
			SourceType: string(src.Type),
			Reference:  src.Reference,
			Content:    src.Content,
		})
	}

	output := AskOutput{
		Answer:         resp.Answer,
		Sources:        sources,
		FiltersApplied: resp.FiltersApplied,
		Degraded:       resp.Degraded,
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal ask output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize answer: %v", err)},
			},
		}, AskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
