package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Info describes the limiter's decision for one request.
type Info struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is how long a throttled caller should wait, in whole seconds.
func (i Info) RetryAfter(now time.Time) int {
	wait := i.Reset.Sub(now)
	if wait <= 0 {
		return 1
	}
	secs := int(wait / time.Second)
	if wait%time.Second != 0 {
		secs++
	}
	return secs
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Info, error)
}

// MemoryLimiter is a per-key token bucket refilled at limit tokens per window.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(m.limit), last: now}
		m.buckets[key] = b
	}

	rate := float64(m.limit) / m.window.Seconds()
	b.tokens = min(float64(m.limit), b.tokens+now.Sub(b.last).Seconds()*rate)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return Info{Allowed: true, Limit: m.limit, Remaining: int(b.tokens), Reset: now.Add(m.window)}, nil
	}

	untilNext := time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return Info{Allowed: false, Limit: m.limit, Remaining: 0, Reset: now.Add(untilNext)}, nil
}

// sweep drops buckets idle for a full window. They have refilled, so
// recreating them later gives the same answer.
func (m *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now
	for key, b := range m.buckets {
		if now.Sub(b.last) >= m.window {
			delete(m.buckets, key)
		}
	}
}

// RedisLimiter counts requests per key in a fixed window shared by every instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Info, error) {
	redisKey := r.prefix + key

	pipe := r.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, r.window)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Info{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	reset := time.Now().Add(r.window)
	if d := ttl.Val(); d > 0 {
		reset = time.Now().Add(d)
	}

	used := int(count.Val())
	if used > r.limit {
		return Info{Allowed: false, Limit: r.limit, Remaining: 0, Reset: reset}, nil
	}
	return Info{Allowed: true, Limit: r.limit, Remaining: r.limit - used, Reset: reset}, nil
}
