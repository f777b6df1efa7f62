// Package enrichment executes tool plans against the external lookups and
// memoizes the lookups for the duration of one run.
package enrichment

import (
	"context"
	"strings"
	"sync"
)

// Kind is the lookup family a cache key belongs to.
type Kind string

const (
	KindCompany Kind = "company"
	KindProfile Kind = "profile"
	KindSkill   Kind = "skill"
)

type cacheKey struct {
	kind Kind
	key  string
}

type entry struct {
	// lock is a one-slot semaphore so waiters can give up on ctx.
	lock  chan struct{}
	done  bool
	value any
}

// Cache memoizes successful lookups by (kind, key). Every key has its own lock,
// so one slow lookup never blocks lookups of other keys. Failed lookups are not
// stored, and the next caller for that key tries again.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*entry
	calls   map[cacheKey]int
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]*entry),
		calls:   make(map[cacheKey]int),
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

func (c *Cache) entryFor(k cacheKey) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{lock: make(chan struct{}, 1)}
		c.entries[k] = e
	}
	return e
}

func (c *Cache) recordCall(k cacheKey) {
	c.mu.Lock()
	c.calls[k]++
	c.mu.Unlock()
}

// Calls returns how many times the lookup for (kind, key) was actually invoked.
func (c *Cache) Calls(kind Kind, key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[cacheKey{kind: kind, key: normalizeKey(key)}]
}

// Lookup returns the cached value for (kind, key) or calls fn to produce it.
// Concurrent callers for the same key wait for the first one; if it fails, the
// next waiter calls fn itself.
func Lookup[T any](ctx context.Context, c *Cache, kind Kind, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	k := cacheKey{kind: kind, key: normalizeKey(key)}
	e := c.entryFor(k)

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
	defer func() { <-e.lock }()

	if e.done {
		return e.value.(T), true, nil
	}

	c.recordCall(k)
	value, err := fn(ctx)
	if err != nil {
		return zero, false, err
	}

	e.value = value
	e.done = true
	return value, false, nil
}
