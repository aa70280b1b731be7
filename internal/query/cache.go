// Package query provides a keyed read-through cache for remote queries.
// It deduplicates concurrent identical fetches, serves values while they
// are fresh, and evicts entries that go unused.
//
// This is NOT a source of truth - mutation handlers and live
// subscriptions invalidate keys, and the next Fetch refills them.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Default lifetimes.
const (
	DefaultFreshFor   = 5 * time.Minute
	DefaultEvictAfter = 10 * time.Minute
)

// keySep joins key parts. Parts never contain it in practice (uids,
// pokemon ids, fixed labels).
const keySep = "\x1f"

// Key identifies a cached query. Keys are hierarchical: a key is a
// prefix of another when its parts lead the other's.
type Key struct {
	parts []string
}

// NewKey builds a key from its parts.
func NewKey(parts ...string) Key {
	return Key{parts: parts}
}

// String returns the canonical string form of the key.
func (k Key) String() string {
	return strings.Join(k.parts, keySep)
}

// entry is one cached value.
type entry struct {
	value     any
	fetchedAt time.Time
	lastUsed  time.Time
}

// flight tracks an in-progress fetch shared by concurrent callers.
type flight struct {
	done  chan struct{}
	value any
	err   error
}

// Cache is a thread-safe read-through cache.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	inflight   map[string]*flight
	freshFor   time.Duration
	evictAfter time.Duration
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithFreshFor overrides how long values are served without refetching.
func WithFreshFor(d time.Duration) Option {
	return func(c *Cache) { c.freshFor = d }
}

// WithEvictAfter overrides how long unused values survive.
func WithEvictAfter(d time.Duration) Option {
	return func(c *Cache) { c.evictAfter = d }
}

// withClock replaces the time source (tests only).
func withClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache with the default lifetimes.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		inflight:   make(map[string]*flight),
		freshFor:   DefaultFreshFor,
		evictAfter: DefaultEvictAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key if it is still fresh, otherwise
// runs fn and caches its result. Concurrent calls for the same key share
// a single execution of fn. Errors are never cached.
func (c *Cache) Fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	ks := key.String()

	c.mu.Lock()
	c.sweepLocked()

	if e, ok := c.entries[ks]; ok && c.now().Sub(e.fetchedAt) < c.freshFor {
		e.lastUsed = c.now()
		v := e.value
		c.mu.Unlock()
		return v, nil
	}

	if f, ok := c.inflight[ks]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	c.inflight[ks] = f
	c.mu.Unlock()

	f.value, f.err = fn(ctx)
	close(f.done)

	c.mu.Lock()
	delete(c.inflight, ks)
	if f.err == nil {
		now := c.now()
		c.entries[ks] = &entry{value: f.value, fetchedAt: now, lastUsed: now}
	}
	c.mu.Unlock()

	return f.value, f.err
}

// Put stores a value directly, replacing whatever the key held. Used by
// live subscriptions that push authoritative data.
func (c *Cache) Put(key Key, value any) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &entry{value: value, fetchedAt: now, lastUsed: now}
}

// Invalidate drops the exact key.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
}

// InvalidatePrefix drops every key that starts with the given key's
// parts. Invalidating ("favorites", uid) clears all of that owner's
// favorites queries.
func (c *Cache) InvalidatePrefix(key Key) {
	prefix := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	for ks := range c.entries {
		if ks == prefix || strings.HasPrefix(ks, prefix+keySep) {
			delete(c.entries, ks)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked evicts entries unused for longer than evictAfter.
// Caller holds c.mu.
func (c *Cache) sweepLocked() {
	cutoff := c.now().Add(-c.evictAfter)
	for ks, e := range c.entries {
		if e.lastUsed.Before(cutoff) {
			delete(c.entries, ks)
		}
	}
}

// FetchAs is a typed wrapper around Cache.Fetch. A cached value of the
// wrong type means two differently-typed queries collided on one key;
// the stale entry is dropped and fn re-run rather than returning a
// zero value.
func FetchAs[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	wrapped := func(ctx context.Context) (any, error) {
		return fn(ctx)
	}

	v, err := c.Fetch(ctx, key, wrapped)
	if err != nil {
		var zero T
		return zero, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	c.Invalidate(key)
	v, err = c.Fetch(ctx, key, wrapped)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query: key %q cached a %T, want %T", key.String(), v, zero)
	}
	return typed, nil
}
