// Package worker provides an asynchronous worker pool for publishing answer
// events with the provided eventstream.Publisher.
//
// The pool decouples event publishing from the answer hot path so that a slow
// or unreachable broker never delays a response to the caller.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/eventstream"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher is the backend the workers publish to.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes answer events asynchronously via a worker pool. It
// implements eventstream.Publisher, so callers treat it like any other
// publisher.
type Pool struct {
	config *Config
	queue  chan *eventstream.AnswerEvent
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.AnswerEvent, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// PublishAnswer enqueues the event for background publishing. A full queue
// drops the event rather than block the caller.
func (p *Pool) PublishAnswer(_ context.Context, event *eventstream.AnswerEvent) error {
	if event == nil {
		return eventstream.ErrNilAnswerEvent
	}

	select {
	case p.queue <- event:
		p.logger.Debug("answer event queued",
			zap.String("event_id", event.EventID),
		)
	default:
		p.logger.Error("answer event not queued, queue full, event dropped",
			zap.String("event_id", event.EventID),
		)
	}

	return nil
}

// Close signals workers to stop, waits for in-flight events to drain, and
// closes the backend publisher. Call this during graceful shutdown after the
// API server has stopped.
func (p *Pool) Close() error {
	close(p.queue)
	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for event := range p.queue {
		if err := p.config.Publisher.PublishAnswer(context.Background(), event); err != nil {
			p.logger.Error("async event publish failed",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		p.logger.Debug("answer event published",
			zap.String("event_id", event.EventID),
		)
	}

	p.logger.Debug("publish worker stopped", zap.Uint("worker_id", id))
}
