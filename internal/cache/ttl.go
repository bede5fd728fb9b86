// Package cache provides the process-wide, time-bounded maps backing script handles,
// query results and usage counters.
package cache

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 16

type settings struct {
	now    func() time.Time
	shards int
}

// Option customises a cache.
type Option func(*settings)

// WithNow overrides the clock used for expiry decisions.
func WithNow(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithShards sets the number of independently locked shards.
func WithShards(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.shards = n
		}
	}
}

type entry[V any] struct {
	created time.Time
	value   V
}

type shard[V any] struct {
	items map[string]entry[V]
	mu    sync.Mutex
}

// TTL is a sharded map whose entries are treated as absent once older than the TTL.
// Operations on the same key are serialized by the shard lock.
type TTL[V any] struct {
	now    func() time.Time
	shards []*shard[V]
	ttl    time.Duration
}

// New creates a TTL cache.
func New[V any](ttl time.Duration, opts ...Option) *TTL[V] {
	s := settings{now: time.Now, shards: defaultShards}
	for _, opt := range opts {
		opt(&s)
	}

	c := &TTL[V]{
		now:    s.now,
		ttl:    ttl,
		shards: make([]*shard[V], s.shards),
	}
	for i := range c.shards {
		c.shards[i] = &shard[V]{items: make(map[string]entry[V])}
	}

	return c
}

func (c *TTL[V]) shardFor(key string) *shard[V] {
	return c.shards[xxhash.Sum64String(key)%uint64(len(c.shards))]
}

func (c *TTL[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.created) > c.ttl
}

// Set stores value under key with a fresh creation time.
func (c *TTL[V]) Set(key string, value V) {
	sh := c.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = entry[V]{value: value, created: c.now()}
	sh.mu.Unlock()
}

// SetNX stores value only if key is absent or expired. It reports whether it stored.
func (c *TTL[V]) SetNX(key string, value V) bool {
	sh := c.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := c.now()
	if e, ok := sh.items[key]; ok && !c.expired(e, now) {
		return false
	}
	sh.items[key] = entry[V]{value: value, created: now}
	return true
}

// Get returns the value for key unless it is missing or expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	sh := c.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.items[key]
	if !ok || c.expired(e, c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Update atomically replaces the value of key with fn(current, found) and restarts
// the entry lifetime. An expired entry is passed to fn as not found.
func (c *TTL[V]) Update(key string, fn func(current V, found bool) V) V {
	sh := c.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := c.now()
	e, ok := sh.items[key]
	if ok && c.expired(e, now) {
		ok = false
	}
	if !ok {
		var zero V
		e = entry[V]{value: zero}
	}
	e.value = fn(e.value, ok)
	e.created = now
	sh.items[key] = e

	return e.value
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	sh := c.shardFor(key)
	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()
}

// Sweep removes expired entries and returns how many were dropped.
// Shards are locked one at a time.
func (c *TTL[V]) Sweep() int {
	removed := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		now := c.now()
		for key, e := range sh.items {
			if c.expired(e, now) {
				delete(sh.items, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	return removed
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *TTL[V]) Len() int {
	n := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		n += len(sh.items)
		sh.mu.Unlock()
	}

	return n
}

// Lifetime returns the configured entry lifetime.
func (c *TTL[V]) Lifetime() time.Duration {
	return c.ttl
}
