package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, rate float64, burst int) *OperatorLimiter {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, rate, burst)
}

func TestOperatorLimiterExhaustsBurst(t *testing.T) {
	limiter := newLimiter(t, 0.001, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "op-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "op-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Positive(t, res.RetryAfter)

	other, err := limiter.Allow(ctx, "op-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestNilLimiterAllows(t *testing.T) {
	var limiter *OperatorLimiter
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "op-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
