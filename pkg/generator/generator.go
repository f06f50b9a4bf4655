// Package generator turns retrieved passages and a question into a grounded,
// cited answer.
package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/llm"
	"github.com/noorlabs/mishkat/pkg/llm/client"
	"github.com/noorlabs/mishkat/pkg/retriever"
)

// DefaultModel is the chat model used when the config does not name one.
const DefaultModel = "gpt-4o-mini"

// DefaultMaxTokens bounds answer length.
const DefaultMaxTokens = 1024

// ChatClient is the completion surface the generator depends on. The
// resilient client satisfies it.
type ChatClient interface {
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, []client.Attempt, error)
}

// Source is one passage the answer is grounded in.
type Source struct {
	Type      corpus.SourceType `json:"source_type"`
	Reference string            `json:"reference"`
	Content   string            `json:"content"`
}

// Answer is a generated answer plus the passages backing it.
type Answer struct {
	Text     string
	Sources  []Source
	Degraded bool
	Attempts []client.Attempt
}

// Generator builds prompts, invokes the model and cross-references citations.
type Generator struct {
	client      ChatClient
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// New creates a Generator over the given chat client.
func New(c ChatClient, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		client:      c,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: 0.2,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces an answer for the question grounded in the retrieval
// result. Sources only ever reference retrieved passages; the generator
// never fabricates a source the retriever did not return.
func (g *Generator) Generate(ctx context.Context, question string, retrieved *retriever.Result) (*Answer, error) {
	if retrieved == nil || len(retrieved.Passages) == 0 {
		return &Answer{
			Text: "No relevant passages were found for this question. " +
				"Try rephrasing it or widening the verse filter.",
		}, nil
	}

	req := &llm.ChatRequest{
		Model:       g.model,
		System:      systemPrompt,
		Messages:    []llm.Message{llm.NewMessage("user", buildUserPrompt(question, retrieved))},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	resp, attempts, err := g.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("completing chat: %w", err)
	}

	if resp.Degraded {
		return &Answer{
			Text:     degradedAnswer(retrieved),
			Sources:  allSources(retrieved),
			Degraded: true,
			Attempts: attempts,
		}, nil
	}

	sources := citedSources(resp.Message.Content, retrieved)
	if len(sources) == 0 {
		// The model cited nothing recognizable; attribute every retrieved
		// passage rather than leave the answer unsourced.
		sources = allSources(retrieved)
	}

	g.logger.Debug("answer generated",
		zap.Int("passages", len(retrieved.Passages)),
		zap.Int("sources", len(sources)),
		zap.Int("attempts", len(attempts)),
	)

	return &Answer{
		Text:     resp.Message.Content,
		Sources:  sources,
		Attempts: attempts,
	}, nil
}

// degradedAnswer surfaces the retrieved passages verbatim when every call
// strategy failed, so the caller still gets something useful.
func degradedAnswer(retrieved *retriever.Result) string {
	var b strings.Builder
	b.WriteString("I was unable to generate an answer because the language model is currently unreachable. ")
	b.WriteString("The passages below were retrieved for your question:\n")
	for _, p := range retrieved.Passages {
		b.WriteString("\n")
		b.WriteString(p.Document.Tag())
		b.WriteString(" ")
		b.WriteString(p.Document.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func allSources(retrieved *retriever.Result) []Source {
	sources := make([]Source, 0, len(retrieved.Passages))
	for _, p := range retrieved.Passages {
		sources = append(sources, Source{
			Type:      p.Document.Source,
			Reference: p.Document.Reference(),
			Content:   p.Document.Text,
		})
	}
	return sources
}
