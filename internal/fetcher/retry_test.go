package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetrierOptions(t *testing.T) {
	opts := DefaultRetrierOptions()

	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 1*time.Second, opts.InitialInterval)
	assert.Equal(t, 30*time.Second, opts.MaxInterval)
	assert.Equal(t, 2.0, opts.Multiplier)
}

func TestNewRetrier_FillsDefaults(t *testing.T) {
	r := NewRetrier(RetrierOptions{})

	assert.Equal(t, 3, r.MaxRetries())
	assert.Equal(t, 1*time.Second, r.initialInterval)
	assert.Equal(t, 30*time.Second, r.maxInterval)
	assert.Equal(t, 2.0, r.multiplier)
}

func TestRetrier_BackoffSchedule(t *testing.T) {
	b := NewRetrier(DefaultRetrierOptions()).newBackoff(context.Background())

	assert.Equal(t, 1*time.Second, b.NextBackOff())
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestRetrier_Retry(t *testing.T) {
	fast := RetrierOptions{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
	networkErr := domain.NewFetchError("u", 0, fmt.Errorf("%w: reset", domain.ErrNetwork))

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{name: "success first try", failures: 0, wantCalls: 1},
		{name: "network errors then success", failures: 2, err: networkErr, wantCalls: 3},
		{name: "network errors exhaust budget", failures: 10, err: networkErr, wantCalls: 4, wantErr: true},
		{name: "not found is permanent", failures: 10, err: domain.NewFetchError("u", 404, domain.ErrNotFound), wantCalls: 1, wantErr: true},
		{name: "rate limit is permanent", failures: 10, err: domain.NewRateLimitError("u", 60, time.Now(), false), wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := NewRetrier(fast).Retry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryWithValue_CancelledDuringBackoff(t *testing.T) {
	r := NewRetrier(RetrierOptions{MaxRetries: 3, InitialInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := RetryWithValue(ctx, r, func() (int, error) {
		calls++
		cancel()
		return 0, fmt.Errorf("%w: reset", domain.ErrNetwork)
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindCancelled, domain.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestRetryWithValue_ReturnsValue(t *testing.T) {
	got, err := RetryWithValue(context.Background(), NewRetrier(DefaultRetrierOptions()), func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"120", 120 * time.Second},
		{" 5 ", 5 * time.Second},
		{"-3", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRetryAfter(tt.value, now))
		})
	}
}
