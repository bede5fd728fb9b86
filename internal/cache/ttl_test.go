package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestTTLExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string](time.Hour, WithNow(clock.Now))

	c.Set("k", "v")

	clock.Advance(time.Hour - time.Millisecond)
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	clock.Advance(2 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestTTLSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := New[int](time.Minute, WithNow(clock.Now), WithShards(4))

	c.Set("old", 1)
	clock.Advance(30 * time.Second)
	c.Set("new", 2)
	clock.Advance(31 * time.Second)

	require.Equal(t, 2, c.Len())
	require.Equal(t, 1, c.Sweep())
	require.Equal(t, 1, c.Len())

	_, ok := c.Get("new")
	require.True(t, ok)
}

func TestTTLUpdateIsAtomicPerKey(t *testing.T) {
	c := New[int](time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Update("counter", func(cur int, _ bool) int { return cur + 1 })
			}
		}()
	}
	wg.Wait()

	v, ok := c.Get("counter")
	require.True(t, ok)
	require.Equal(t, 1000, v)
}

func TestTTLUpdateRestartsExpiredEntry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := New[int](time.Minute, WithNow(clock.Now))

	c.Update("k", func(cur int, found bool) int {
		require.False(t, found)
		return cur + 5
	})
	clock.Advance(2 * time.Minute)

	got := c.Update("k", func(cur int, found bool) int {
		require.False(t, found)
		require.Zero(t, cur)
		return cur + 1
	})
	require.Equal(t, 1, got)
}

func TestArtifactsHandles(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	a := NewArtifacts(time.Hour, WithNow(clock.Now))

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		h := a.Put(models.CachedScript{Title: "t", Payload: "p"})
		require.Len(t, h, 32)
		_, dup := seen[h]
		require.False(t, dup)
		seen[h] = struct{}{}
	}

	h := a.Put(models.CachedScript{Title: "Arsenal", Payload: "print(1)"})
	got, err := a.Get(h)
	require.NoError(t, err)
	require.Equal(t, "print(1)", got.Payload)

	_, err = a.Get("nope")
	require.ErrorIs(t, err, models.ErrHandleExpired)

	clock.Advance(time.Hour + time.Millisecond)
	_, err = a.Get(h)
	require.ErrorIs(t, err, models.ErrHandleExpired)
	require.Equal(t, 201, a.Sweep())
	require.Zero(t, a.Len())
}
