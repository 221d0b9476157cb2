package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGuardRejectsSecondAcquire(t *testing.T) {
	ctx := context.Background()
	g := New(nil, time.Minute)

	lease, err := g.Acquire(ctx)
	require.NoError(t, err)

	_, err = g.Acquire(ctx)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx), "release is idempotent")

	again, err := g.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestDistributedGuardSpansInstances(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	newClient := func() *redis.Client {
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	first := New(newClient(), time.Minute)
	second := New(newClient(), time.Minute)
	require.True(t, first.Distributed())

	lease, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, server.Exists(LockKey))

	_, err = second.Acquire(ctx)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, lease.Refresh(ctx))
	require.NoError(t, lease.Release(ctx))
	assert.False(t, server.Exists(LockKey))

	other, err := second.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))
}

func TestDistributedGuardExpiresAbandonedLock(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	crashed := New(client, time.Minute)
	_, err := crashed.Acquire(ctx)
	require.NoError(t, err)

	server.FastForward(2 * time.Minute)

	survivor := New(client, time.Minute)
	lease, err := survivor.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
}
