package cm360

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a thread-safe token bucket. It starts full, holds at most
// capacity tokens and refills at refillRate tokens per second.
type TokenBucket struct {
	capacity   int
	tokens     int
	refillRate int
	lastRefill time.Time
	mu         sync.Mutex
	waitCount  int64
	totalCount int64
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.take()
}

func (tb *TokenBucket) take() bool {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed.Seconds() * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	tb.mu.Lock()
	tb.totalCount++
	if tb.take() {
		tb.mu.Unlock()
		return nil
	}
	tb.waitCount++
	tb.mu.Unlock()

	interval := time.Second / time.Duration(max(tb.refillRate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if tb.Allow() {
				return nil
			}
		}
	}
}

// Stats returns how many Wait calls had to block and how many were made.
func (tb *TokenBucket) Stats() (waited, total int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.waitCount, tb.totalCount
}

// Throttle keeps one bucket per bearer token, since CM360 enforces its
// request quota per user.
type Throttle struct {
	buckets    map[string]*TokenBucket
	mu         sync.RWMutex
	capacity   int
	refillRate int
}

// NewThrottle allows bursts of capacity requests and refillRate requests per
// second sustained, per credential.
func NewThrottle(capacity, refillRate int) *Throttle {
	if capacity < 1 {
		capacity = 1
	}
	return &Throttle{buckets: make(map[string]*TokenBucket), capacity: capacity, refillRate: refillRate}
}

func (t *Throttle) bucket(key string) *TokenBucket {
	t.mu.RLock()
	b, ok := t.buckets[key]
	t.mu.RUnlock()
	if ok {
		return b
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok = t.buckets[key]; !ok {
		b = NewTokenBucket(t.capacity, t.refillRate)
		t.buckets[key] = b
	}
	return b
}

// Wait blocks until the credential key may issue another request.
func (t *Throttle) Wait(ctx context.Context, key string) error {
	if t == nil || t.refillRate <= 0 {
		return nil
	}
	return t.bucket(key).Wait(ctx)
}

// Forget drops the bucket of key, e.g. after logout.
func (t *Throttle) Forget(key string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.buckets, key)
	t.mu.Unlock()
}
