package subdiv

import (
	"sync"
	"sync/atomic"
)

type cacheState struct {
	epoch      uint64
	generation uint64
	patch      *Patch
}

// CacheEntry 每个面的缓存槽
type CacheEntry struct {
	mu    sync.Mutex
	state atomic.Pointer[cacheState]
}

// CacheStats 缓存统计
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Builds uint64
	Resets uint64
}

// PatchCache hands out patch trees built lazily per entry. A read lock is
// held from Lookup until Unlock so Reset cannot free a tree in use.
type PatchCache struct {
	mu    sync.RWMutex
	arena *Arena
	epoch uint64

	hits   atomic.Uint64
	misses atomic.Uint64
	builds atomic.Uint64
	resets atomic.Uint64
}

func NewPatchCache() *PatchCache {
	return &PatchCache{arena: NewArena()}
}

// Lookup returns the entry's patch for generation, running build at most
// once per generation. The caller must call Unlock afterwards, on every path.
func (c *PatchCache) Lookup(e *CacheEntry, generation uint64, build func(*Arena) *Patch) (*Patch, bool) {
	c.mu.RLock()
	if s := e.state.Load(); s != nil && s.epoch == c.epoch && s.generation == generation {
		c.hits.Add(1)
		return s.patch, s.patch != nil
	}
	c.misses.Add(1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.state.Load(); s != nil && s.epoch == c.epoch && s.generation == generation {
		return s.patch, s.patch != nil
	}
	c.builds.Add(1)
	p := build(c.arena)
	e.state.Store(&cacheState{epoch: c.epoch, generation: generation, patch: p})
	if p == nil {
		Logger().Debug("patch cache build empty", "generation", generation)
	}
	return p, p != nil
}

func (c *PatchCache) Unlock() {
	c.mu.RUnlock()
}

// Reset invalidates every entry and releases all patch trees in bulk.
func (c *PatchCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	n := c.arena.Len()
	c.arena.Reset()
	c.resets.Add(1)
	Logger().Debug("patch cache reset", "epoch", c.epoch, "released", n)
}

func (c *PatchCache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Builds: c.builds.Load(),
		Resets: c.resets.Load(),
	}
}
