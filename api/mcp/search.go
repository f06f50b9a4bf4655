package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/retriever"
	"github.com/noorlabs/mishkat/pkg/utils"
	"github.com/noorlabs/mishkat/pkg/vector"
)

var (
	searchToolName    = "search"
	searchDescription = "Search the Quran and tafsir corpus using semantic search. Returns the most relevant passages for the query text without generating an answer."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query       string `json:"query" jsonschema:"the search query text to find relevant passages"`
	SurahFilter int    `json:"surah_filter,omitempty" jsonschema:"restrict results to this surah number"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Reference  string  `json:"reference"`
	SourceType string  `json:"source_type"`
	Score      float32 `json:"score"`
	Preview    string  `json:"preview"`
	Text       string  `json:"text"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP search request",
		zap.String("query", input.Query),
		zap.Int("topK", input.TopK),
	)

	var filter *vector.Filter
	if input.SurahFilter > 0 {
		filter = &vector.Filter{Surah: input.SurahFilter}
	}

	retrieved, err := s.config.Searcher.Retrieve(ctx, retriever.Query{
		Text:   input.Query,
		Filter: filter,
		TopK:   input.TopK,
	})
	if err != nil {
		logger.Error("failed to search corpus", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to search corpus: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	searchResults := make([]SearchResult, 0, len(retrieved.Passages))
	for _, passage := range retrieved.Passages {
		searchResults = append(searchResults, SearchResult{
			Reference:  passage.Document.Reference(),
			SourceType: string(passage.Document.Source),
			Score:      passage.Score,
			Preview:    utils.Truncate(passage.Document.Text, 200),
			Text:       passage.Document.Text,
		})
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: searchResults,
		Count:   len(searchResults),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
