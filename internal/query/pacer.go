package query

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces consecutive group queries so one wide request cannot
// monopolize the store.
type Pacer interface {
	Wait(ctx context.Context) error
}

// TokenBucket is a refilling token bucket: one token per interval up to a
// burst capacity. Wait blocks until a token is available or the context
// ends.
type TokenBucket struct {
	mu       sync.Mutex
	interval time.Duration
	tokens   float64
	capacity float64
	last     time.Time
	now      func() time.Time
}

func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		interval: interval,
		tokens:   float64(burst),
		capacity: float64(burst),
		now:      time.Now,
	}
}

// Wait takes one token, sleeping for the shortfall when the bucket is dry.
func (b *TokenBucket) Wait(ctx context.Context) error {
	b.mu.Lock()
	now := b.now()
	if !b.last.IsZero() && b.interval > 0 {
		b.tokens += float64(now.Sub(b.last)) / float64(b.interval)
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		b.mu.Unlock()
		return nil
	}
	shortfall := time.Duration((1 - b.tokens) * float64(b.interval))
	b.tokens = 0
	b.mu.Unlock()

	timer := time.NewTimer(shortfall)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
