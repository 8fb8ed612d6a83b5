package nimbus

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// TokenTTL is how long a bearer token is reused. The server expires tokens
// after an hour; the margin keeps us clear of that edge.
const TokenTTL = 55 * time.Minute

// TokenCache holds the bearer token of one client instance. It starts empty,
// is filled by the first authentication and emptied when the token it holds is rejected. Clients may share one cache.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	clock     clockz.Clock
}

// NewTokenCache returns an empty cache. A nil clock means wall time.
func NewTokenCache(clock clockz.Clock) *TokenCache {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &TokenCache{clock: clock}
}

// Get returns the cached token while it is still valid.
func (t *TokenCache) Get() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token == "" || !t.expiresAt.After(t.clock.Now()) {
		return "", false
	}
	return t.token, true
}

func (t *TokenCache) Set(token string) {
	t.mu.Lock()
	t.token = token
	t.expiresAt = t.clock.Now().Add(TokenTTL)
	t.mu.Unlock()
}

// InvalidateIf empties the cache only while it still holds token.
func (t *TokenCache) InvalidateIf(token string) {
	t.mu.Lock()
	if t.token == token {
		t.token = ""
		t.expiresAt = time.Time{}
	}
	t.mu.Unlock()
}
