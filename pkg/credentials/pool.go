// Package credentials manages the pool of upstream API keys, rotating past
// keys that hit auth or quota failures.
package credentials

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoCredentials is returned when every credential in the pool is cooling
// down or the pool is empty.
var ErrNoCredentials = errors.New("no credentials available")

// DefaultCooldown is how long a failed credential stays unavailable before it
// may be tried again.
const DefaultCooldown = 5 * time.Minute

// Credential is one API key with a stable identifier for diagnostics.
type Credential struct {
	// ID identifies the credential in logs and attempt records without
	// exposing the key itself (e.g. "key-2(…f3ab)").
	ID string

	// Key is the secret API key.
	Key string
}

// Pool is an ordered set of credentials with per-credential cooldown state.
// All mutation happens under one mutex so rotation decisions are
// linearizable: once a request marks a credential failed, no concurrent
// request can claim it again until its cooldown expires.
type Pool struct {
	mu            sync.Mutex
	creds         []Credential
	cooldownUntil map[string]time.Time
	cooldown      time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// NewPool creates a pool over the given keys, in order of preference.
// A zero cooldown uses DefaultCooldown.
func NewPool(keys []string, cooldown time.Duration, logger *zap.Logger) (*Pool, error) {
	if len(keys) == 0 {
		return nil, errors.New("credential pool requires at least one key")
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	creds := make([]Credential, len(keys))
	for i, key := range keys {
		creds[i] = Credential{
			ID:  fmt.Sprintf("key-%d(%s)", i+1, maskKey(key)),
			Key: key,
		}
	}

	return &Pool{
		creds:         creds,
		cooldownUntil: make(map[string]time.Time),
		cooldown:      cooldown,
		now:           time.Now,
		logger:        logger,
	}, nil
}

// Next returns the first credential that is not cooling down.
// Returns ErrNoCredentials when the pool is exhausted.
func (p *Pool) Next() (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for _, cred := range p.creds {
		if until, cooling := p.cooldownUntil[cred.ID]; cooling && now.Before(until) {
			continue
		}
		return cred, nil
	}

	return Credential{}, ErrNoCredentials
}

// MarkFailed puts the credential into cooldown after an auth or quota
// failure. Subsequent Next calls skip it until the cooldown expires.
func (p *Pool) MarkFailed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	until := p.now().Add(p.cooldown)
	p.cooldownUntil[id] = until

	if p.logger != nil {
		p.logger.Warn("credential placed in cooldown",
			zap.String("credential", id),
			zap.Time("until", until),
		)
	}
}

// Size returns the total number of credentials in the pool.
func (p *Pool) Size() int {
	return len(p.creds)
}

// Available returns how many credentials are currently usable.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	available := 0
	for _, cred := range p.creds {
		if until, cooling := p.cooldownUntil[cred.ID]; cooling && now.Before(until) {
			continue
		}
		available++
	}
	return available
}

// maskKey keeps only the last four characters of a key for log output.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "…"
	}
	return "…" + key[len(key)-4:]
}
