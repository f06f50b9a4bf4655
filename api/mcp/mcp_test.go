package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/engine"
	"github.com/noorlabs/mishkat/pkg/generator"
	"github.com/noorlabs/mishkat/pkg/logger"
	"github.com/noorlabs/mishkat/pkg/retriever"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// fakeAnswerer returns a scripted engine response.
type fakeAnswerer struct {
	resp *engine.Response
	err  error

	lastReq engine.Request
}

func (f *fakeAnswerer) Answer(_ context.Context, req engine.Request) (*engine.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// fakeSearcher returns scripted passages.
type fakeSearcher struct {
	result *retriever.Result
	err    error

	lastQuery retriever.Query
}

func (f *fakeSearcher) Retrieve(_ context.Context, q retriever.Query) (*retriever.Result, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &retriever.Result{}, nil
}

var _ = Describe("MCP Server", func() {
	var (
		server   *Server
		answerer *fakeAnswerer
		searcher *fakeSearcher
		ctx      context.Context
	)

	BeforeEach(func() {
		answerer = &fakeAnswerer{resp: &engine.Response{Answer: "ok", Sources: []generator.Source{}}}
		searcher = &fakeSearcher{}
		ctx = context.Background()

		var err error
		server, err = NewServer(Config{
			Answerer: answerer,
			Searcher: searcher,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the answerer is nil", func() {
			_, err := NewServer(Config{Searcher: searcher, Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("answerer is required"))
		})

		It("returns an error when the searcher is nil", func() {
			_, err := NewServer(Config{Answerer: answerer, Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("searcher is required"))
		})

		It("returns an error when the logger is nil", func() {
			_, err := NewServer(Config{Answerer: answerer, Searcher: searcher})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a noop server without dependencies", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("ask tool", func() {
		It("passes filters through to the answerer", func() {
			_, _, err := server.handleAsk(ctx, &sdk.CallToolRequest{}, AskInput{
				Question:    "What about patience?",
				SurahFilter: 2,
				VerseFilter: 153,
				TopK:        3,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(answerer.lastReq.Question).To(Equal("What about patience?"))
			Expect(answerer.lastReq.SurahFilter).To(Equal(2))
			Expect(answerer.lastReq.VerseFilter).To(Equal(153))
			Expect(answerer.lastReq.TopK).To(Equal(3))
		})

		It("returns structured output plus serialized JSON content", func() {
			answerer.resp = &engine.Response{
				Answer: "Patience is commanded in 2:153.",
				Sources: []generator.Source{
					{Type: corpus.SourceVerse, Reference: "2:153", Content: "Seek help through patience."},
				},
				FiltersApplied: engine.FiltersApplied{SurahFilter: 2},
			}

			result, output, err := server.handleAsk(ctx, &sdk.CallToolRequest{}, AskInput{
				Question:    "What about patience?",
				SurahFilter: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Answer).To(ContainSubstring("2:153"))
			Expect(output.Sources).To(HaveLen(1))
			Expect(output.Sources[0].Reference).To(Equal("2:153"))
			Expect(output.FiltersApplied.SurahFilter).To(Equal(2))

			Expect(result.Content).To(HaveLen(1))
			text, ok := result.Content[0].(*sdk.TextContent)
			Expect(ok).To(BeTrue())

			var parsed AskOutput
			Expect(json.Unmarshal([]byte(text.Text), &parsed)).To(Succeed())
			Expect(parsed.Answer).To(Equal(output.Answer))
		})

		It("reports answer failures as tool errors", func() {
			answerer.err = errors.New("retrieval blew up")

			result, _, err := server.handleAsk(ctx, &sdk.CallToolRequest{}, AskInput{Question: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("search tool", func() {
		BeforeEach(func() {
			searcher.result = &retriever.Result{
				Passages: []vector.Result{
					{
						Document: corpus.Document{
							ID:      "quran:2:153",
							Text:    "O you who believe, seek help through patience and prayer.",
							Source:  corpus.SourceVerse,
							Locator: corpus.Locator{Surah: 2, Verse: 153},
						},
						Score: 0.91,
					},
				},
			}
		})

		It("converts a surah filter into a vector filter", func() {
			_, _, err := server.handleSearch(ctx, &sdk.CallToolRequest{}, SearchInput{
				Query:       "patience",
				SurahFilter: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(searcher.lastQuery.Filter).To(Equal(&vector.Filter{Surah: 2}))
		})

		It("returns references, scores, and previews", func() {
			result, output, err := server.handleSearch(ctx, &sdk.CallToolRequest{}, SearchInput{Query: "patience"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Reference).To(Equal("2:153"))
			Expect(output.Results[0].SourceType).To(Equal("verse"))
			Expect(output.Results[0].Score).To(Equal(float32(0.91)))
			Expect(output.Results[0].Preview).NotTo(BeEmpty())
		})

		It("reports search failures as tool errors", func() {
			searcher.err = errors.New("index unavailable")

			result, _, err := server.handleSearch(ctx, &sdk.CallToolRequest{}, SearchInput{Query: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})
})
