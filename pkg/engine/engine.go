// Package engine composes the retriever and generator into one
// request/response cycle and exposes the external answer contract.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/credentials"
	"github.com/noorlabs/mishkat/pkg/eventstream"
	"github.com/noorlabs/mishkat/pkg/generator"
	"github.com/noorlabs/mishkat/pkg/retriever"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// Request is the external answer contract.
type Request struct {
	Question       string `json:"question"`
	SurahFilter    int    `json:"surah_filter,omitempty"`
	VerseFilter    int    `json:"verse_filter,omitempty"`
	EndVerseFilter int    `json:"end_verse_filter,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
}

// FiltersApplied echoes the verse filters the engine actually applied.
type FiltersApplied struct {
	SurahFilter    int `json:"surah_filter,omitempty"`
	VerseFilter    int `json:"verse_filter,omitempty"`
	EndVerseFilter int `json:"end_verse_filter,omitempty"`
}

// Response is the composed answer returned to every front end.
type Response struct {
	Answer         string             `json:"answer"`
	Sources        []generator.Source `json:"sources"`
	FiltersApplied FiltersApplied     `json:"filters_applied"`
	Degraded       bool               `json:"degraded,omitempty"`
}

// Retriever is the retrieval surface the engine composes.
type Retriever interface {
	Retrieve(ctx context.Context, q retriever.Query) (*retriever.Result, error)
}

// Generator is the answer synthesis surface the engine composes.
type Generator interface {
	Generate(ctx context.Context, question string, retrieved *retriever.Result) (*generator.Answer, error)
}

// Engine is the orchestrator. It owns no retry logic of its own; resilience
// lives inside the model client, and errors surfacing here are terminal.
type Engine struct {
	retriever Retriever
	generator Generator
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// New creates an Engine. The publisher may be a nop publisher but not nil.
func New(r Retriever, g Generator, publisher eventstream.Publisher, logger *zap.Logger) *Engine {
	return &Engine{
		retriever: r,
		generator: g,
		publisher: publisher,
		logger:    logger,
	}
}

// Answer runs one retrieval-and-generation cycle for the request.
func (e *Engine) Answer(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}

	retrieved, err := e.retriever.Retrieve(ctx, retriever.Query{
		Text:   req.Question,
		Filter: filter,
		TopK:   req.TopK,
	})
	if err != nil {
		return nil, e.classifyRetrieval(ctx, err)
	}

	answer, err := e.generator.Generate(ctx, req.Question, retrieved)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(KindCanceled, "request canceled", err)
		}
		return nil, newError(KindModelCall, "generating answer", err)
	}

	resp := &Response{
		Answer:  answer.Text,
		Sources: answer.Sources,
		FiltersApplied: FiltersApplied{
			SurahFilter:    req.SurahFilter,
			VerseFilter:    req.VerseFilter,
			EndVerseFilter: req.EndVerseFilter,
		},
		Degraded: answer.Degraded,
	}
	if resp.Sources == nil {
		resp.Sources = []generator.Source{}
	}

	e.publish(ctx, req, answer, time.Since(start))

	return resp, nil
}

// buildFilter validates the filter fields and converts them to a vector
// filter. A zero filter means unrestricted search.
func buildFilter(req Request) (*vector.Filter, error) {
	if req.Question == "" {
		return nil, newError(KindInvalidRequest, "question must not be empty", nil)
	}
	if req.SurahFilter < 0 || req.VerseFilter < 0 || req.EndVerseFilter < 0 {
		return nil, newError(KindInvalidRequest, "filters must be positive", nil)
	}
	if req.VerseFilter > 0 && req.SurahFilter == 0 {
		return nil, newError(KindInvalidRequest, "verse_filter requires surah_filter", nil)
	}
	if req.EndVerseFilter > 0 && req.VerseFilter == 0 {
		return nil, newError(KindInvalidRequest, "end_verse_filter requires verse_filter", nil)
	}
	if req.EndVerseFilter > 0 && req.EndVerseFilter < req.VerseFilter {
		return nil, newError(KindInvalidRequest, "end_verse_filter must not precede verse_filter", nil)
	}

	if req.SurahFilter == 0 {
		return nil, nil
	}

	return &vector.Filter{
		Surah:    req.SurahFilter,
		Verse:    req.VerseFilter,
		EndVerse: req.EndVerseFilter,
	}, nil
}

// classifyRetrieval maps retrieval failures onto the stable error taxonomy.
func (e *Engine) classifyRetrieval(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return newError(KindCanceled, "request canceled", err)
	case errors.Is(err, vector.ErrEmbedding):
		return newError(KindEmbeddingFailure, "embedding the question failed", err)
	case errors.Is(err, vector.ErrDimensionMismatch), errors.Is(err, vector.ErrCorruptIndex):
		return newError(KindIndexError, "vector index is unusable", err)
	case errors.Is(err, credentials.ErrNoCredentials):
		return newError(KindNoCredentials, "no credentials available", err)
	default:
		return newError(KindInternal, "retrieval failed", err)
	}
}

// publish emits an answer event, best effort. A publish failure never fails
// the request.
func (e *Engine) publish(ctx context.Context, req Request, answer *generator.Answer, elapsed time.Duration) {
	refs := make([]eventstream.SourceRef, 0, len(answer.Sources))
	for _, s := range answer.Sources {
		refs = append(refs, eventstream.SourceRef{
			Type:      string(s.Type),
			Reference: s.Reference,
		})
	}

	attempts := make([]eventstream.AttemptMeta, 0, len(answer.Attempts))
	for _, a := range answer.Attempts {
		attempts = append(attempts, eventstream.AttemptMeta{
			Strategy:   a.Strategy,
			Credential: a.Credential,
			Outcome:    string(a.Outcome),
			Error:      a.Error,
			DurationMs: a.Latency.Milliseconds(),
		})
	}

	event := &eventstream.AnswerEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeAnswerGenerated,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Question:      req.Question,
		Filters: eventstream.FilterMeta{
			Surah:    req.SurahFilter,
			Verse:    req.VerseFilter,
			EndVerse: req.EndVerseFilter,
		},
		SourceRefs: refs,
		Attempts:   attempts,
		Degraded:   answer.Degraded,
		DurationMs: elapsed.Milliseconds(),
	}

	if err := e.publisher.PublishAnswer(ctx, event); err != nil {
		e.logger.Warn("publishing answer event failed", zap.Error(err))
	}
}
