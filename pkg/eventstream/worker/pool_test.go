package worker

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/eventstream"
)

// recordingPublisher collects published events and tracks Close calls.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.AnswerEvent
	closed bool
}

func (p *recordingPublisher) PublishAnswer(_ context.Context, event *eventstream.AnswerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) Events() []*eventstream.AnswerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.AnswerEvent(nil), p.events...)
}

func (p *recordingPublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// newTestPool creates a worker pool over a recording publisher.
// Callers should "wp.Close()" to drain enqueued events before asserting.
func newTestPool() (*Pool, *recordingPublisher) {
	logger, _ := zap.NewDevelopment()
	backend := &recordingPublisher{}

	wp, err := NewPool(&Config{
		Publisher: backend,
		Logger:    logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, backend
}

func answerEvent(id string) *eventstream.AnswerEvent {
	return &eventstream.AnswerEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeAnswerGenerated,
		EventID:       id,
		Question:      "What does the Quran say about patience?",
	}
}

var _ = Describe("Worker Pool", func() {
	var (
		wp      *Pool
		backend *recordingPublisher
		ctx     context.Context
	)

	BeforeEach(func() {
		wp, backend = newTestPool()
		ctx = context.Background()
	})

	Describe("NewPool", func() {
		It("requires a backend publisher", func() {
			logger, _ := zap.NewDevelopment()
			_, err := NewPool(&Config{Logger: logger})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("PublishAnswer", func() {
		It("rejects a nil event", func() {
			err := wp.PublishAnswer(ctx, nil)
			Expect(err).To(MatchError(eventstream.ErrNilAnswerEvent))
			wp.Close()
		})

		It("delivers enqueued events to the backend", func() {
			Expect(wp.PublishAnswer(ctx, answerEvent("evt-1"))).To(Succeed())
			Expect(wp.PublishAnswer(ctx, answerEvent("evt-2"))).To(Succeed())

			// Drain the pool so publishing completes before assertions.
			wp.Close()

			events := backend.Events()
			Expect(events).To(HaveLen(2))

			ids := make(map[string]bool, len(events))
			for _, e := range events {
				ids[e.EventID] = true
			}
			Expect(ids).To(HaveKey("evt-1"))
			Expect(ids).To(HaveKey("evt-2"))
		})

		It("never blocks the caller", func() {
			for i := 0; i < 500; i++ {
				Expect(wp.PublishAnswer(ctx, answerEvent("evt"))).To(Succeed())
			}
			wp.Close()
		})
	})

	Describe("Close", func() {
		It("closes the backend publisher after draining", func() {
			Expect(wp.PublishAnswer(ctx, answerEvent("evt-1"))).To(Succeed())
			Expect(wp.Close()).To(Succeed())
			Expect(backend.Closed()).To(BeTrue())
			Expect(backend.Events()).To(HaveLen(1))
		})
	})
})
