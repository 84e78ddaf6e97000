package fetcher

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces outgoing requests
type Pacer interface {
	Wait(ctx context.Context) error
	TryAcquire() bool
	Available() float64
}

// TokenBucket implements a token bucket pacer
type TokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket pacer
func NewTokenBucket(requestsPerMinute int, burstSize int) *TokenBucket {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burstSize <= 0 {
		burstSize = 1
	}

	return &TokenBucket{
		tokens:     float64(burstSize),
		capacity:   float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Wait blocks until a token is available or context is cancelled
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill()
		if tb.tokens >= 1.0 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		tokensNeeded := 1.0 - tb.tokens
		waitDuration := time.Duration(tokensNeeded / tb.refillRate * float64(time.Second))
		tb.mu.Unlock()

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire attempts to acquire a token without blocking
func (tb *TokenBucket) TryAcquire() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// Available returns the current number of available tokens
func (tb *TokenBucket) Available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

// unpaced never delays
type unpaced struct{}

func (unpaced) Wait(context.Context) error { return nil }
func (unpaced) TryAcquire() bool           { return true }
func (unpaced) Available() float64         { return 1.0 }

// NewPacer returns a token bucket for requestsPerMinute > 0 and a no-op
// pacer otherwise. The burst equals the worker count.
func NewPacer(requestsPerMinute, burst int) Pacer {
	if requestsPerMinute <= 0 {
		return unpaced{}
	}
	return NewTokenBucket(requestsPerMinute, burst)
}
