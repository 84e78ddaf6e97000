package fetcher

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func quotaHeader(limit, remaining string, reset int64) http.Header {
	h := http.Header{}
	if limit != "" {
		h.Set(HeaderRateLimit, limit)
	}
	if remaining != "" {
		h.Set(HeaderRateRemaining, remaining)
	}
	if reset > 0 {
		h.Set(HeaderRateReset, strconv.FormatInt(reset, 10))
	}
	return h
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   RateLimitState
		ok     bool
	}{
		{
			name:   "full quota headers",
			header: quotaHeader("60", "42", 1700000000),
			want:   RateLimitState{Limit: 60, Remaining: 42, ResetAt: time.Unix(1700000000, 0), Known: true},
			ok:     true,
		},
		{
			name:   "remaining only",
			header: quotaHeader("", "0", 0),
			want:   RateLimitState{Remaining: 0, Known: true},
			ok:     true,
		},
		{
			name:   "no headers",
			header: http.Header{},
			ok:     false,
		},
		{
			name:   "garbage remaining",
			header: quotaHeader("60", "lots", 0),
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRateLimit(tt.header)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want.Limit, got.Limit)
				assert.Equal(t, tt.want.Remaining, got.Remaining)
				assert.True(t, tt.want.ResetAt.Equal(got.ResetAt))
				assert.True(t, got.Known)
			}
		})
	}
}

func TestRateLimitState_Exhausted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.False(t, RateLimitState{}.Exhausted(now))
	assert.False(t, RateLimitState{Known: true, Remaining: 3, ResetAt: now.Add(time.Minute)}.Exhausted(now))
	assert.True(t, RateLimitState{Known: true, Remaining: 0, ResetAt: now.Add(time.Minute)}.Exhausted(now))
	assert.False(t, RateLimitState{Known: true, Remaining: 0, ResetAt: now.Add(-time.Second)}.Exhausted(now))
}

func TestRateLimitTracker(t *testing.T) {
	tracker := NewRateLimitTracker()
	assert.False(t, tracker.Snapshot().Known)

	_, ok := tracker.Update(http.Header{})
	assert.False(t, ok)

	state, ok := tracker.Update(quotaHeader("60", "10", 1700000000))
	assert.True(t, ok)
	assert.Equal(t, 10, state.Remaining)

	// a stale response from the same window cannot raise the count
	state, _ = tracker.Update(quotaHeader("60", "12", 1700000000))
	assert.Equal(t, 10, state.Remaining)

	// a new window replaces it
	state, _ = tracker.Update(quotaHeader("60", "59", 1700003600))
	assert.Equal(t, 59, state.Remaining)

	tracker.Reopen(time.Unix(1700000000, 0))
	assert.True(t, tracker.Snapshot().Known, "older window does not reopen the current one")

	tracker.Reopen(time.Unix(1700003600, 0))
	assert.False(t, tracker.Snapshot().Known)
}
