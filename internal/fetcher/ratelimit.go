package fetcher

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Rate limit response headers
const (
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRetryAfter    = "Retry-After"
)

// RateLimitState is the last quota reported by the host
type RateLimitState struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	Known     bool
}

// Exhausted reports whether the quota is spent and the window has not yet
// rolled over at now.
func (s RateLimitState) Exhausted(now time.Time) bool {
	return s.Known && s.Remaining <= 0 && s.ResetAt.After(now)
}

// ParseRateLimit reads the quota headers. ok is false when the response
// carries no remaining-count header.
func ParseRateLimit(h http.Header) (RateLimitState, bool) {
	remaining, err := strconv.Atoi(strings.TrimSpace(h.Get(HeaderRateRemaining)))
	if err != nil {
		return RateLimitState{}, false
	}

	state := RateLimitState{Remaining: remaining, Known: true}
	if limit, err := strconv.Atoi(strings.TrimSpace(h.Get(HeaderRateLimit))); err == nil {
		state.Limit = limit
	}
	if reset, err := strconv.ParseInt(strings.TrimSpace(h.Get(HeaderRateReset)), 10, 64); err == nil {
		state.ResetAt = time.Unix(reset, 0)
	}
	return state, true
}

// RateLimitTracker holds the most recent quota observed across concurrent
// requests.
type RateLimitTracker struct {
	mu    sync.RWMutex
	state RateLimitState
}

// NewRateLimitTracker creates an empty tracker
func NewRateLimitTracker() *RateLimitTracker {
	return &RateLimitTracker{}
}

// Update records the quota carried by h. Responses that arrive out of order
// within the same window never raise the remaining count.
func (t *RateLimitTracker) Update(h http.Header) (RateLimitState, bool) {
	next, ok := ParseRateLimit(h)
	if !ok {
		return t.Snapshot(), false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.state
	if prev.Known && prev.ResetAt.Equal(next.ResetAt) && next.Remaining > prev.Remaining {
		next.Remaining = prev.Remaining
	}
	t.state = next
	return next, true
}

// Snapshot returns the current state
func (t *RateLimitTracker) Snapshot() RateLimitState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Reopen marks the window ending at resetAt as elapsed so that waiters do
// not sleep on it again.
func (t *RateLimitTracker) Reopen(resetAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Known && !t.state.ResetAt.After(resetAt) {
		t.state.Known = false
	}
}
