package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, int](clk.Now)

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheZeroTTLIsNoop(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCachePurgeAndConcurrentUse(t *testing.T) {
	c := NewTTLCache[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(i, i, time.Hour)
			_, _ = c.Get(i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
