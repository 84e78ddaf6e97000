package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTokenBucket(t *testing.T) {
	tests := []struct {
		name              string
		requestsPerMinute int
		burstSize         int
		expectedCapacity  float64
	}{
		{name: "standard values", requestsPerMinute: 60, burstSize: 10, expectedCapacity: 10},
		{name: "zero requests per minute defaults to 60", requestsPerMinute: 0, burstSize: 5, expectedCapacity: 5},
		{name: "zero burst size defaults to 1", requestsPerMinute: 60, burstSize: 0, expectedCapacity: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := NewTokenBucket(tt.requestsPerMinute, tt.burstSize)
			assert.Equal(t, tt.expectedCapacity, tb.capacity)
			assert.Equal(t, tt.expectedCapacity, tb.tokens)
		})
	}
}

func TestTokenBucket_TryAcquire(t *testing.T) {
	tb := NewTokenBucket(1, 2)

	assert.True(t, tb.TryAcquire())
	assert.True(t, tb.TryAcquire())
	assert.False(t, tb.TryAcquire())
	assert.Less(t, tb.Available(), 1.0)
}

func TestTokenBucket_WaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	assert.True(t, tb.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTokenBucket_WaitRefills(t *testing.T) {
	tb := NewTokenBucket(6000, 1)
	assert.True(t, tb.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tb.Wait(ctx))
}

func TestNewPacer(t *testing.T) {
	p := NewPacer(0, 5)
	assert.IsType(t, unpaced{}, p)
	assert.NoError(t, p.Wait(context.Background()))
	assert.True(t, p.TryAcquire())
	assert.Equal(t, 1.0, p.Available())

	assert.IsType(t, &TokenBucket{}, NewPacer(120, 5))
}
