package client

import "time"

// Outcome is the terminal state of a single call attempt.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeRetryableError Outcome = "retryable-error"
	OutcomeFatalError     Outcome = "fatal-error"
	OutcomeAuthError      Outcome = "auth-error"
	OutcomeNoCredentials  Outcome = "no-credentials"
)

// Attempt records one call attempt for fallback decisions and diagnostics.
// The per-request attempt log is append-only and discarded with the request;
// it is never persisted.
type Attempt struct {
	// Strategy names the call strategy used ("direct", "library",
	// "degraded-template").
	Strategy string `json:"strategy"`

	// Credential identifies the key used, in masked form.
	Credential string `json:"credential,omitempty"`

	// Outcome is how the attempt ended.
	Outcome Outcome `json:"outcome"`

	// Error is the failure message for non-success outcomes.
	Error string `json:"error,omitempty"`

	// Latency is how long the attempt took.
	Latency time.Duration `json:"latency"`
}
