package engine_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/credentials"
	"github.com/noorlabs/mishkat/pkg/engine"
	"github.com/noorlabs/mishkat/pkg/eventstream"
	"github.com/noorlabs/mishkat/pkg/generator"
	"github.com/noorlabs/mishkat/pkg/llm/client"
	"github.com/noorlabs/mishkat/pkg/retriever"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// fakeRetriever returns scripted passages and records the query it received.
type fakeRetriever struct {
	result *retriever.Result
	err    error

	lastQuery retriever.Query
}

func (f *fakeRetriever) Retrieve(_ context.Context, q retriever.Query) (*retriever.Result, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &retriever.Result{}, nil
}

// fakeGenerator returns a scripted answer.
type fakeGenerator struct {
	answer *generator.Answer
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ *retriever.Result) (*generator.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &generator.Answer{Text: "ok"}, nil
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.AnswerEvent
}

func (p *capturePublisher) PublishAnswer(_ context.Context, event *eventstream.AnswerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) Events() []*eventstream.AnswerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.AnswerEvent(nil), p.events...)
}

var _ = Describe("Engine", func() {
	var (
		ret       *fakeRetriever
		gen       *fakeGenerator
		publisher *capturePublisher
		eng       *engine.Engine
		ctx       context.Context
	)

	BeforeEach(func() {
		logger, _ := zap.NewDevelopment()
		ret = &fakeRetriever{}
		gen = &fakeGenerator{}
		publisher = &capturePublisher{}
		eng = engine.New(ret, gen, publisher, logger)
		ctx = context.Background()
	})

	Describe("request validation", func() {
		expectKind := func(req engine.Request, kind engine.Kind) {
			_, err := eng.Answer(ctx, req)
			Expect(err).To(HaveOccurred())
			Expect(engine.KindOf(err)).To(Equal(kind))
		}

		It("rejects an empty question", func() {
			expectKind(engine.Request{}, engine.KindInvalidRequest)
		})

		It("rejects negative filters", func() {
			expectKind(engine.Request{Question: "q", SurahFilter: -1}, engine.KindInvalidRequest)
		})

		It("rejects a verse filter without a surah", func() {
			expectKind(engine.Request{Question: "q", VerseFilter: 255}, engine.KindInvalidRequest)
		})

		It("rejects an end verse without a start verse", func() {
			expectKind(engine.Request{Question: "q", SurahFilter: 2, EndVerseFilter: 10}, engine.KindInvalidRequest)
		})

		It("rejects a range that ends before it starts", func() {
			expectKind(engine.Request{
				Question:       "q",
				SurahFilter:    2,
				VerseFilter:    100,
				EndVerseFilter: 50,
			}, engine.KindInvalidRequest)
		})
	})

	Describe("filter propagation", func() {
		It("searches unrestricted when no filter is given", func() {
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ret.lastQuery.Filter).To(BeNil())
		})

		It("converts filter fields into a vector filter", func() {
			_, err := eng.Answer(ctx, engine.Request{
				Question:       "q",
				SurahFilter:    2,
				VerseFilter:    153,
				EndVerseFilter: 157,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ret.lastQuery.Filter).To(Equal(&vector.Filter{Surah: 2, Verse: 153, EndVerse: 157}))
		})

		It("echoes the applied filters in the response", func() {
			resp, err := eng.Answer(ctx, engine.Request{Question: "q", SurahFilter: 2, VerseFilter: 153})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.FiltersApplied.SurahFilter).To(Equal(2))
			Expect(resp.FiltersApplied.VerseFilter).To(Equal(153))
		})
	})

	Describe("error classification", func() {
		It("maps embedding failures", func() {
			ret.err = vector.ErrEmbedding
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindEmbeddingFailure))
		})

		It("maps index errors", func() {
			ret.err = vector.ErrDimensionMismatch
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindIndexError))

			ret.err = vector.ErrCorruptIndex
			_, err = eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindIndexError))
		})

		It("maps credential exhaustion", func() {
			ret.err = credentials.ErrNoCredentials
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindNoCredentials))
		})

		It("maps unknown retrieval failures to internal", func() {
			ret.err = errors.New("something odd")
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindInternal))
		})

		It("maps generation failures to model call errors", func() {
			gen.err = errors.New("upstream exploded")
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindModelCall))
		})

		It("maps cancellation during retrieval", func() {
			canceledCtx, cancel := context.WithCancel(ctx)
			cancel()
			ret.err = context.Canceled

			_, err := eng.Answer(canceledCtx, engine.Request{Question: "q"})
			Expect(engine.KindOf(err)).To(Equal(engine.KindCanceled))
		})
	})

	Describe("responses", func() {
		It("never returns nil sources", func() {
			gen.answer = &generator.Answer{Text: "no sources here"}

			resp, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Sources).NotTo(BeNil())
			Expect(resp.Sources).To(BeEmpty())
		})

		It("carries the degraded flag through", func() {
			gen.answer = &generator.Answer{Text: "fallback", Degraded: true}

			resp, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Degraded).To(BeTrue())
		})
	})

	Describe("event publishing", func() {
		It("emits one event per answered question", func() {
			gen.answer = &generator.Answer{
				Text: "answer",
				Sources: []generator.Source{
					{Type: corpus.SourceVerse, Reference: "2:153", Content: "patience"},
				},
				Attempts: []client.Attempt{
					{Strategy: "direct", Outcome: client.OutcomeSuccess},
				},
			}

			_, err := eng.Answer(ctx, engine.Request{Question: "What about patience?", SurahFilter: 2})
			Expect(err).NotTo(HaveOccurred())

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeAnswerGenerated))
			Expect(events[0].SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(events[0].EventID).NotTo(BeEmpty())
			Expect(events[0].Question).To(Equal("What about patience?"))
			Expect(events[0].Filters.Surah).To(Equal(2))
			Expect(events[0].SourceRefs).To(HaveLen(1))
			Expect(events[0].Attempts).To(HaveLen(1))
		})

		It("does not emit events for failed requests", func() {
			ret.err = vector.ErrEmbedding
			_, err := eng.Answer(ctx, engine.Request{Question: "q"})
			Expect(err).To(HaveOccurred())
			Expect(publisher.Events()).To(BeEmpty())
		})
	})
})
