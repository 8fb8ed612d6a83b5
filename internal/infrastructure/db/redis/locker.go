package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix     = "lock:"
	defaultLockTTL = 10 * time.Minute
)

// releaseScript deletes the key only while it still carries our token, so a
// holder whose lease expired cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements ports.Locker on top of SET NX with a lease.
// Key format: lock:<key>
//
// The lease bounds how long a crashed holder can block other processes.
type Locker struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[int64]string
}

// NewLocker creates a Locker. If ttl <= 0, defaultLockTTL is used.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{
		client: client,
		ttl:    ttl,
		tokens: make(map[int64]string),
	}
}

func (l *Locker) TryLock(ctx context.Context, key int64) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(key), token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock %d: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *Locker) Unlock(ctx context.Context, key int64) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, token).Err(); err != nil {
		return fmt.Errorf("unlock %d: %w", key, err)
	}
	return nil
}

func (l *Locker) key(k int64) string {
	return lockPrefix + strconv.FormatInt(k, 10)
}
