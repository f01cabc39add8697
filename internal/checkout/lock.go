package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlowLocker enforces at most one active checkout flow per cart session.
type FlowLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const lockPrefix = "checkout:flow:"

type redisLocker struct {
	client *redis.Client
}

// NewRedisLocker locks flows across API replicas via SETNX with a TTL, so a
// crashed flow cannot hold its session hostage.
func NewRedisLocker(client *redis.Client) FlowLocker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockPrefix+key, 1, ttl).Result()
}

func (l *redisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, lockPrefix+key).Err()
}

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewMemoryLocker is the single-process fallback used when no Redis address
// is configured.
func NewMemoryLocker() FlowLocker {
	return &memoryLocker{held: make(map[string]time.Time)}
}

func (l *memoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expiry, ok := l.held[key]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *memoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
