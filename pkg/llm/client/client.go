// Package client executes chat completions against volatile, rate-limited
// upstream providers with a deterministic fallback chain.
//
// Each request walks an explicit state machine: the primary strategy with
// bounded retries and credential rotation, then the secondary strategy the
// same way, then a degraded template that cannot fail. The only error
// Complete ever returns is context cancellation.
package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/credentials"
	"github.com/noorlabs/mishkat/pkg/llm"
)

// DefaultMaxAttempts is the retry budget per strategy for retryable errors.
const DefaultMaxAttempts = 3

// StrategyDegraded names the terminal template stage in attempt records.
const StrategyDegraded = "degraded-template"

// DegradedFunc produces the templated response used when every call strategy
// has failed. It must not fail and needs no credential.
type DegradedFunc func(req *llm.ChatRequest) *llm.ChatResponse

// Config holds configuration for the resilient client.
type Config struct {
	// Strategies are tried in order. At least one is required.
	Strategies []Strategy

	// Pool supplies and rotates API credentials. Required.
	Pool *credentials.Pool

	// MaxAttempts is the per-strategy retry budget for retryable errors.
	// Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// BackoffBase and BackoffCap bound the exponential retry backoff.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// Degraded overrides the default template response.
	Degraded DegradedFunc

	// Logger is the configured zap logger. Required.
	Logger *zap.Logger
}

// Client is the resilient model client.
type Client struct {
	strategies  []Strategy
	pool        *credentials.Pool
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	degraded    DegradedFunc
	logger      *zap.Logger

	// sleep is replaced in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a resilient client.
func New(c Config) (*Client, error) {
	if len(c.Strategies) == 0 {
		return nil, errors.New("at least one call strategy is required")
	}
	if c.Pool == nil {
		return nil, errors.New("credential pool is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	degraded := c.Degraded
	if degraded == nil {
		degraded = defaultDegraded
	}

	return &Client{
		strategies:  c.Strategies,
		pool:        c.Pool,
		maxAttempts: maxAttempts,
		backoffBase: c.BackoffBase,
		backoffCap:  c.BackoffCap,
		degraded:    degraded,
		logger:      c.Logger,
		sleep:       sleepCtx,
	}, nil
}

// Complete executes the request through the fallback chain. It always returns
// a response — degraded if every strategy failed — unless the context is
// canceled, which aborts promptly and is the sole error path.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, []Attempt, error) {
	var attempts []Attempt

	for _, strategy := range c.strategies {
		resp, strategyAttempts, err := c.runStrategy(ctx, strategy, req)
		attempts = append(attempts, strategyAttempts...)
		if err != nil {
			return nil, attempts, err
		}
		if resp != nil {
			return resp, attempts, nil
		}

		c.logger.Warn("call strategy exhausted, falling back",
			zap.String("strategy", strategy.Name()),
		)
	}

	// Terminal stage: the template needs no credential and cannot fail.
	resp := c.degraded(req)
	attempts = append(attempts, Attempt{
		Strategy: StrategyDegraded,
		Outcome:  OutcomeSuccess,
	})

	c.logger.Warn("all call strategies failed, returning degraded response")

	return resp, attempts, nil
}

// runStrategy drives one strategy to success or exhaustion. A nil response
// with nil error means the strategy is exhausted and the chain should move
// on; a non-nil error is context cancellation.
func (c *Client) runStrategy(ctx context.Context, strategy Strategy, req *llm.ChatRequest) (*llm.ChatResponse, []Attempt, error) {
	var attempts []Attempt

	cred, err := c.pool.Next()
	if err != nil {
		// Every credential is cooling down; this strategy cannot run.
		attempts = append(attempts, Attempt{
			Strategy: strategy.Name(),
			Outcome:  OutcomeNoCredentials,
			Error:    err.Error(),
		})
		return nil, attempts, nil
	}

	retries := 0
	rotations := 0

	for {
		start := time.Now()
		resp, callErr := strategy.Complete(ctx, req, cred.Key)
		latency := time.Since(start)

		if callErr == nil {
			attempts = append(attempts, Attempt{
				Strategy:   strategy.Name(),
				Credential: cred.ID,
				Outcome:    OutcomeSuccess,
				Latency:    latency,
			})
			return resp, attempts, nil
		}

		if canceled(ctx, callErr) {
			return nil, attempts, ctx.Err()
		}

		classification := classify(callErr)
		attempts = append(attempts, Attempt{
			Strategy:   strategy.Name(),
			Credential: cred.ID,
			Outcome:    outcomeFor(classification),
			Error:      callErr.Error(),
			Latency:    latency,
		})

		c.logger.Debug("call attempt failed",
			zap.String("strategy", strategy.Name()),
			zap.String("credential", cred.ID),
			zap.String("classification", classification.String()),
			zap.Duration("latency", latency),
			zap.Error(callErr),
		)

		switch classification {
		case Fatal:
			return nil, attempts, nil

		case AuthFailure:
			c.pool.MarkFailed(cred.ID)
			rotations++
			if rotations >= c.pool.Size() {
				return nil, attempts, nil
			}
			next, err := c.pool.Next()
			if err != nil {
				attempts = append(attempts, Attempt{
					Strategy: strategy.Name(),
					Outcome:  OutcomeNoCredentials,
					Error:    err.Error(),
				})
				return nil, attempts, nil
			}
			cred = next
			// A fresh credential gets a fresh call without backoff.

		case Retryable:
			retries++
			if retries >= c.maxAttempts {
				return nil, attempts, nil
			}
			if err := c.sleep(ctx, backoffDelay(retries, c.backoffBase, c.backoffCap)); err != nil {
				return nil, attempts, err
			}
		}
	}
}

func outcomeFor(classification Classification) Outcome {
	switch classification {
	case Fatal:
		return OutcomeFatalError
	case AuthFailure:
		return OutcomeAuthError
	default:
		return OutcomeRetryableError
	}
}

// defaultDegraded is the fallback template when the caller supplies none.
func defaultDegraded(_ *llm.ChatRequest) *llm.ChatResponse {
	return &llm.ChatResponse{
		CreatedAt: time.Now(),
		Message: llm.NewMessage("assistant",
			"I was unable to generate an answer because the language model is currently unreachable. Please try again later."),
		StopReason: "degraded",
		Degraded:   true,
	}
}

// sleepCtx sleeps for d or until the context is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
