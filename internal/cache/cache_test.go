package cache

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, compress bool) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(Options{Compress: compress})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBadgerCache(t *testing.T) {
	for _, compress := range []bool{true, false} {
		name := "raw"
		if compress {
			name = "compressed"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCache(t, compress)

			_, err := c.Get(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrCacheMiss)
			assert.False(t, c.Has(ctx, "missing"))

			value := bytes.Repeat([]byte("package main\n"), 200)
			require.NoError(t, c.Set(ctx, "k", value))

			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, value, got)
			assert.True(t, c.Has(ctx, "k"))
			assert.Equal(t, int64(1), c.Size())

			stats := c.Stats()
			assert.Equal(t, int64(1), stats["hits"])
			assert.Equal(t, int64(1), stats["misses"])
		})
	}
}

func TestBadgerCache_EmptyValue(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, true)

	require.NoError(t, c.Set(ctx, "empty", nil))
	got, err := c.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnwrapValue_Corrupt(t *testing.T) {
	_, err := unwrapValue(nil)
	assert.Error(t, err)

	_, err = unwrapValue([]byte("xabc"))
	assert.Error(t, err)
}

func TestEntry_RoundTrip(t *testing.T) {
	resp := &domain.Response{
		StatusCode:  200,
		Body:        []byte(`{"default_branch":"main"}`),
		Headers:     http.Header{"X-Ratelimit-Remaining": {"59"}},
		ContentType: "application/json",
		URL:         "https://api.github.com/repos/o/r",
	}

	data, err := NewEntry(resp, time.Now()).Encode()
	require.NoError(t, err)

	entry, err := DecodeEntry(data)
	require.NoError(t, err)

	replay := entry.Response()
	assert.True(t, replay.FromCache)
	assert.Equal(t, resp.Body, replay.Body)
	assert.Equal(t, "59", replay.Headers.Get("X-RateLimit-Remaining"))
	assert.Equal(t, resp.URL, replay.URL)

	_, err = DecodeEntry([]byte("{"))
	assert.Error(t, err)
}

func TestRequestKey(t *testing.T) {
	base := RequestKey("GET", "https://api.github.com/repos/o/r/contents/src?ref=main", "anonymous")

	tests := []struct {
		name  string
		key   string
		equal bool
	}{
		{"same request", RequestKey("get", "https://API.github.com/repos/o/r/contents/src?ref=main", "anonymous"), true},
		{"default port and fragment", RequestKey("GET", "https://api.github.com:443/repos/o/r/contents/src/?ref=main#x", "anonymous"), true},
		{"different ref", RequestKey("GET", "https://api.github.com/repos/o/r/contents/src?ref=dev", "anonymous"), false},
		{"different credentials", RequestKey("GET", "https://api.github.com/repos/o/r/contents/src?ref=main", "abc123"), false},
		{"different method", RequestKey("HEAD", "https://api.github.com/repos/o/r/contents/src?ref=main", "anonymous"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.equal {
				assert.Equal(t, base, tt.key)
			} else {
				assert.NotEqual(t, base, tt.key)
			}
		})
	}

	assert.Regexp(t, `^req:[0-9a-f]{64}$`, base)
}

func TestNormalizeForKey(t *testing.T) {
	assert.Equal(t, normalizeForKey("https://example.com/a/"), normalizeForKey("https://EXAMPLE.com:443/a"))
	assert.Equal(t, normalizeForKey("https://example.com?b=2&a=1"), "https://example.com/?a=1&b=2")
}
