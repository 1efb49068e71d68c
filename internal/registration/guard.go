package registration

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const submissionLockPrefix = "registration:lock:v1:"

// Guard serializes submissions per device identifier. A held lock is the
// server side equivalent of a disabled submit button.
type Guard interface {
	// Acquire returns ErrSubmissionInProgress when key is already held.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard is a process local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard returns an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

// Acquire implements Guard.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, ErrSubmissionInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// RedisGuard shares the lock between replicas. The TTL bounds how long a
// crashed instance can block a device.
type RedisGuard struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisGuard builds a Redis backed Guard.
func NewRedisGuard(cache *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisGuard{cache: cache, ttl: ttl}
}

// Acquire implements Guard.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := submissionLockPrefix + key
	ok, err := g.cache.SetNX(ctx, lockKey, "1", g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}
	return func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.cache.Del(cleanupCtx, lockKey) // best effort, TTL covers failures
	}, nil
}
