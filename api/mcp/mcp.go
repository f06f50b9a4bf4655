// Package mcp provides an MCP (Model Context Protocol) server for the
// mishkat question answering engine.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/engine"
	"github.com/noorlabs/mishkat/pkg/retriever"
	"github.com/noorlabs/mishkat/pkg/utils"
)

// Answerer is the orchestrator surface the ask tool binds to.
type Answerer interface {
	Answer(ctx context.Context, req engine.Request) (*engine.Response, error)
}

// Searcher is the retrieval surface the search tool binds to.
type Searcher interface {
	Retrieve(ctx context.Context, q retriever.Query) (*retriever.Result, error)
}

type Config struct {
	// Answerer runs the full retrieval-and-generation cycle for the ask tool
	Answerer Answerer

	// Searcher runs passage retrieval for the search tool
	Searcher Searcher

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask and search tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mishkat",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Answerer == nil {
		return nil, errors.New("answerer is required")
	}
	if c.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
