package client

import (
	"math/rand"
	"time"
)

const (
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffCap  = 8 * time.Second
)

// backoffDelay returns the sleep before retry number attempt (1-based):
// exponential growth from base, capped, with ±50% jitter so concurrent
// requests don't retry in lockstep.
func backoffDelay(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		base = defaultBackoffBase
	}
	if cap <= 0 {
		cap = defaultBackoffCap
	}

	delay := base << (attempt - 1)
	if delay > cap || delay <= 0 {
		delay = cap
	}

	jitter := time.Duration(rand.Int63n(int64(delay))) - delay/2
	return delay + jitter
}
