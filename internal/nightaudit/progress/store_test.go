package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl, nil), server
}

func storesUnderTest(t *testing.T) map[string]domain.ProgressStore {
	redisStore, _ := newRedisStore(t, time.Hour)
	return map[string]domain.ProgressStore{
		"memory": NewMemoryStore(time.Hour, nil),
		"redis":  redisStore,
	}
}

func TestStoreCreateGetUpdate(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := store.Create(ctx, domain.ProgressRecord{Steps: domain.Steps, OperatorID: "ops"})
			require.NoError(t, err)
			require.NotEmpty(t, created.ID)
			assert.False(t, created.StartedAt.IsZero())

			other, err := store.Create(ctx, domain.ProgressRecord{Steps: domain.Steps})
			require.NoError(t, err)
			assert.NotEqual(t, created.ID, other.ID)

			require.NoError(t, store.Update(ctx, created.ID, func(r *domain.ProgressRecord) {
				r.CurrentStep = 1
				r.Messages = append(r.Messages, "Step 1/6 started: Close settled stays")
				r.ID = "tampered"
			}))

			got, ok, err := store.Get(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, 1, got.CurrentStep)
			assert.Equal(t, []string{"Step 1/6 started: Close settled stays"}, got.Messages)
			assert.Equal(t, "ops", got.OperatorID)

			_, ok, err = store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			err = store.Update(ctx, "missing", func(*domain.ProgressRecord) {})
			assert.ErrorIs(t, err, domain.ErrRunNotFound)
		})
	}
}

func TestMemoryStoreSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, nil)
	created, err := store.Create(ctx, domain.ProgressRecord{Steps: domain.Steps})
	require.NoError(t, err)

	snapshot, _, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	snapshot.Messages = append(snapshot.Messages, "poller scribble")
	snapshot.Steps[0] = "changed"

	fresh, _, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Messages)
	assert.Equal(t, domain.Steps[0], fresh.Steps[0])
}

func TestMemoryStoreConcurrentReadersSeeWholeUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, nil)
	created, err := store.Create(ctx, domain.ProgressRecord{Steps: domain.Steps})
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, _, err := store.Get(ctx, created.ID)
				if err != nil {
					t.Errorf("get: %v", err)
					return
				}
				// each update appends one message and bumps the step together
				if len(got.Messages) != got.CurrentStep {
					t.Errorf("torn read: %d messages at step %d", len(got.Messages), got.CurrentStep)
					return
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		require.NoError(t, store.Update(ctx, created.ID, func(r *domain.ProgressRecord) {
			r.Messages = append(r.Messages, fmt.Sprintf("message %d", i))
			r.CurrentStep = i
		}))
	}
	close(stop)
	wg.Wait()
}

func TestMemoryStorePrunesOnlyFinishedRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour, func() time.Time { return now })

	running, err := store.Create(ctx, domain.ProgressRecord{})
	require.NoError(t, err)
	done, err := store.Create(ctx, domain.ProgressRecord{})
	require.NoError(t, err)
	finished := now
	require.NoError(t, store.Update(ctx, done.ID, func(r *domain.ProgressRecord) {
		r.IsCompleted = true
		r.FinishedAt = &finished
	}))

	now = now.Add(2 * time.Hour)
	_, err = store.Create(ctx, domain.ProgressRecord{})
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, running.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	ctx := context.Background()
	store, server := newRedisStore(t, time.Hour)

	created, err := store.Create(ctx, domain.ProgressRecord{Steps: domain.Steps})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, server.TTL(redisKey(created.ID)))

	server.FastForward(30 * time.Minute)
	require.NoError(t, store.Update(ctx, created.ID, func(r *domain.ProgressRecord) { r.Percent = 50 }))
	assert.Equal(t, time.Hour, server.TTL(redisKey(created.ID)), "update refreshes ttl")

	server.FastForward(2 * time.Hour)
	_, ok, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreKeepsEmptyMessagesAsArray(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := store.Create(ctx, domain.ProgressRecord{Steps: domain.Steps, Messages: []string{}})
			require.NoError(t, err)

			got, ok, err := store.Get(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.NotNil(t, got.Messages)
			assert.Empty(t, got.Messages)

			require.NoError(t, store.Update(ctx, created.ID, func(r *domain.ProgressRecord) {
				r.Messages = nil
			}))
			got, _, err = store.Get(ctx, created.ID)
			require.NoError(t, err)

			payload, err := json.Marshal(got)
			require.NoError(t, err)
			assert.Contains(t, string(payload), `"messages":[]`)
		})
	}
}
