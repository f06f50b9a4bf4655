package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/engine"
	"github.com/noorlabs/mishkat/pkg/llm"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAsk answers a question submitted as a JSON body.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req engine.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Error: "invalid request body",
			Kind:  string(engine.KindInvalidRequest),
		})
	}

	return s.answer(c, req)
}

// handleAskQuery answers a question submitted as query parameters, for
// browser-friendly access.
func (s *Server) handleAskQuery(c *fiber.Ctx) error {
	req := engine.Request{
		Question:       c.Query("question"),
		SurahFilter:    c.QueryInt("surah_filter"),
		VerseFilter:    c.QueryInt("verse_filter"),
		EndVerseFilter: c.QueryInt("end_verse_filter"),
		TopK:           c.QueryInt("top_k"),
	}

	return s.answer(c, req)
}

func (s *Server) answer(c *fiber.Ctx, req engine.Request) error {
	resp, err := s.answerer.Answer(c.Context(), req)
	if err != nil {
		kind := engine.KindOf(err)

		s.logger.Warn("answer request failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)

		return c.Status(statusFor(kind)).JSON(llm.ErrorResponse{
			Error: messageFor(err),
			Kind:  string(kind),
		})
	}

	return c.JSON(resp)
}

// statusFor maps stable error kinds to HTTP status codes.
func statusFor(kind engine.Kind) int {
	switch kind {
	case engine.KindInvalidRequest:
		return fiber.StatusBadRequest
	case engine.KindCanceled:
		return fiber.StatusRequestTimeout
	case engine.KindEmbeddingFailure, engine.KindModelCall:
		return fiber.StatusBadGateway
	case engine.KindNoCredentials:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// messageFor returns the structured message without internal error chains.
func messageFor(err error) string {
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		return engineErr.Message
	}
	return "internal error"
}
