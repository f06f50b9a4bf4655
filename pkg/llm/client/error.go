package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Classification sorts a failed call attempt into the bucket that drives the
// fallback state machine.
type Classification int

const (
	// Retryable errors (timeouts, 5xx, rate limits with retry-after,
	// schema-invalid responses) are retried with backoff, up to the
	// attempt budget, on the same strategy.
	Retryable Classification = iota

	// Fatal errors (invalid request, content policy rejection) short-circuit
	// straight to the next strategy without retrying.
	Fatal

	// AuthFailure errors (bad key, quota exhausted) put the credential into
	// cooldown and retry the same strategy with the next available one.
	AuthFailure
)

// String returns the lowercase name of the classification.
func (c Classification) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	case AuthFailure:
		return "auth"
	default:
		return "unknown"
	}
}

// CallError is a classified upstream failure.
type CallError struct {
	Classification Classification

	// Status is the HTTP status code when one was received.
	Status int

	Err error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model call failed (%s, status %d): %v", e.Classification, e.Status, e.Err)
	}
	return fmt.Sprintf("model call failed (%s): %v", e.Classification, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// retryable wraps err as a retryable call error.
func retryable(status int, err error) *CallError {
	return &CallError{Classification: Retryable, Status: status, Err: err}
}

// fatal wraps err as a fatal call error.
func fatal(status int, err error) *CallError {
	return &CallError{Classification: Fatal, Status: status, Err: err}
}

// authFailure wraps err as a credential failure.
func authFailure(status int, err error) *CallError {
	return &CallError{Classification: AuthFailure, Status: status, Err: err}
}

// classify maps an arbitrary strategy error to its classification.
// Context cancellation is handled separately by the state machine; transport
// errors without a classification default to retryable, since network flakes
// dominate that category.
func classify(err error) Classification {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Classification
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Retryable
	}

	return Retryable
}

// canceled reports whether err means the caller went away (as opposed to a
// per-attempt deadline expiring, which is a retryable timeout).
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

// classifyStatus maps an HTTP status to a call error classification,
// following the OpenAI-compatible API conventions.
func classifyStatus(status int, err error) *CallError {
	switch {
	case status == 401 || status == 403:
		return authFailure(status, err)
	case status == 429:
		// Plain rate limits are retryable; quota exhaustion is recognized
		// by the callers that can see the error body and classified there.
		return retryable(status, err)
	case status >= 500:
		return retryable(status, err)
	default:
		return fatal(status, err)
	}
}
