package api

import (
	"context"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/engine"
)

// Answerer is the single function surface the API binds to.
type Answerer interface {
	Answer(ctx context.Context, req engine.Request) (*engine.Response, error)
}

// Server is the HTTP API server for asking questions of the corpus.
type Server struct {
	config   Config
	answerer Answerer
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The answerer is injected to allow
// sharing with the MCP server and CLI front ends.
func NewServer(config Config, answerer Answerer, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		answerer: answerer,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/ask", s.handleAsk)
	app.Get("/v1/ask", s.handleAskQuery)

	return s
}

// MountMCP mounts the MCP streamable HTTP handler at /mcp.
func (s *Server) MountMCP(handler http.Handler) {
	s.app.All("/mcp", adaptor.HTTPHandler(handler))
	s.app.All("/mcp/*", adaptor.HTTPHandler(handler))
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
