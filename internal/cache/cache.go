package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores encoded read models. Implementations must be safe for
// concurrent use; a miss is (nil, false, nil).
//
// Generations are counters that never expire. Readers fold the current
// generation into their key, writers bump it, so an entry filled from a read
// that raced a write lands under a key no later reader asks for.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, keys ...string) error

	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) (int64, error)
}

// Memory is an in-process TTL cache for single-replica deployments.
type Memory struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	m         map[string]entry
	gens      map[string]int64
	nextSweep time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl:  ttl,
		now:  time.Now,
		m:    make(map[string]entry),
		gens: make(map[string]int64),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, ok := c.m[key]; ok && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte) error {
	cp := make([]byte, len(val))
	copy(cp, val)

	now := c.now()

	c.mu.Lock()
	c.m[key] = entry{val: cp, exp: now.Add(c.ttl)}
	if now.After(c.nextSweep) {
		c.sweepLocked(now)
	}
	c.mu.Unlock()
	return nil
}

func (c *Memory) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.m, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *Memory) Generation(_ context.Context, key string) (int64, error) {
	c.mu.RLock()
	g := c.gens[key]
	c.mu.RUnlock()
	return g, nil
}

func (c *Memory) Bump(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	c.gens[key]++
	g := c.gens[key]
	c.mu.Unlock()
	return g, nil
}

// Superseded generations are never read again, so expired entries are
// dropped once per ttl instead of waiting for a Get.
func (c *Memory) sweepLocked(now time.Time) {
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
	c.nextSweep = now.Add(c.ttl)
}
