// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package locationcache implements the bounded, LRU-evicted, TTL-expiring
// mapping from logical path to tier (C2 in the design). Entries are
// advisory hints, not a source of truth: every operation using the
// cache must be prepared to reprobe the filesystem when a hit disagrees
// with reality, or when an entry has simply aged out.
package locationcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/rhss-io/rhss/internal/tier"
	"github.com/rhss-io/rhss/lib/clock"
)

// DefaultCapacity is the recommended soft capacity from the design:
// 10,000 entries.
const DefaultCapacity = 10_000

// DefaultTTL is how long a cache entry is trusted before Lookup treats
// it as a Miss, even if it has not been evicted for space. Bounds how
// long a union-view rename or external mutation outside this process
// can leave a stale hint in place.
const DefaultTTL = 5 * time.Minute

// Location is the resolved location for a logical path: either present
// in a tier, or known absent from both.
type Location struct {
	Tier   tier.Tier
	Absent bool
}

// Entry is a LocationEntry: a Location plus the time it was inserted.
// InsertedAt drives TTL expiry in Lookup.
type Entry struct {
	Path       string
	Location   Location
	InsertedAt time.Time
}

// Stats is a snapshot of the cache's observability counters.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Inserts       uint64
	Evictions     uint64
	Invalidations uint64
	Expired       uint64
}

// Result is the outcome of a Lookup.
type Result int

const (
	// Miss means the cache has no entry for the path.
	Miss Result = iota
	// HitPresent means the cache has an entry naming a tier.
	HitPresent
	// HitAbsent means the cache has an entry recording the path as
	// absent from both tiers.
	HitAbsent
)

type node struct {
	path  string
	entry Entry
}

// Cache is a bounded LogicalPath -> LocationEntry map with LRU
// eviction. All methods are safe for concurrent use: a single mutex
// guards both the map and the eviction list, which is simple and
// sufficient — the design explicitly leaves the sharding strategy to
// the implementer.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    clock.Clock
	items    map[string]*list.Element // -> *node
	order    *list.List               // front = most recently used

	stats Stats
}

// New creates a Cache with the given soft capacity and entry TTL. A
// capacity <= 0 uses DefaultCapacity; a ttl <= 0 uses DefaultTTL. clk
// defaults to clock.Real() when nil, so tests can supply a fake clock
// for deterministic InsertedAt timestamps, LRU ordering, and TTL
// expiry.
func New(capacity int, ttl time.Duration, clk clock.Clock) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clk,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Lookup consults the cache for p. The design requires every hit to be
// re-verified against the filesystem for the calling operation's
// invariant; Lookup only returns the hint. An entry older than the
// cache's TTL is treated as a Miss even though it has not been evicted,
// the same lazy-expiry behavior as the cache this was ported from: the
// stale entry is left in place and is overwritten on the next Insert or
// evicted normally under capacity pressure.
func (c *Cache) Lookup(p string) (Location, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[p]
	if !ok {
		c.stats.Misses++
		return Location{}, Miss
	}
	entry := elem.Value.(*node).entry
	if c.clock.Now().Sub(entry.InsertedAt) >= c.ttl {
		c.stats.Misses++
		c.stats.Expired++
		return Location{}, Miss
	}
	c.order.MoveToFront(elem)
	c.stats.Hits++
	if entry.Location.Absent {
		return entry.Location, HitAbsent
	}
	return entry.Location, HitPresent
}

// Insert records that p currently exists in t, evicting the least
// recently used entry if the cache is over capacity.
func (c *Cache) Insert(p string, t tier.Tier) {
	c.set(p, Location{Tier: t})
}

// MarkAbsent records that p exists in neither tier.
func (c *Cache) MarkAbsent(p string) {
	c.set(p, Location{Absent: true})
}

func (c *Cache) set(p string, loc Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[p]; ok {
		elem.Value.(*node).entry = Entry{Path: p, Location: loc, InsertedAt: c.clock.Now()}
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&node{path: p, entry: Entry{Path: p, Location: loc, InsertedAt: c.clock.Now()}})
	c.items[p] = elem
	c.stats.Inserts++

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the least recently used entry. Caller must hold
// c.mu.
func (c *Cache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.order.Remove(back)
	delete(c.items, back.Value.(*node).path)
	c.stats.Evictions++
}

// Invalidate removes any entry for p, forcing the next Lookup to miss
// and the caller to reprobe.
func (c *Cache) Invalidate(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(p)
}

func (c *Cache) invalidateLocked(p string) {
	elem, ok := c.items[p]
	if !ok {
		return
	}
	c.order.Remove(elem)
	delete(c.items, p)
	c.stats.Invalidations++
}

// InvalidatePrefix removes every entry whose path is prefix or lies
// beneath prefix (prefix + "/"). Used on directory rename and remove,
// where an unbounded number of descendant entries become stale at
// once.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	toRemove := make([]string, 0)
	for p := range c.items {
		if p == prefix || hasPathPrefix(p, prefix) {
			toRemove = append(toRemove, p)
		}
	}
	for _, p := range toRemove {
		c.invalidateLocked(p)
	}
}

func hasPathPrefix(p, prefix string) bool {
	if prefix == "" {
		return true
	}
	return len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/'
}

// Clear empties the cache without adjusting the invalidation counter
// (that counter tracks per-entry invalidation, not bulk resets).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// ListingEntry is one resolved child in a directory listing, as
// produced by the namespace engine's readdir.
type ListingEntry struct {
	Name string
	Tier tier.Tier
}

// BulkUpdateFromListing updates the cache for every entry produced by
// a directory scan, amortizing the cost of subsequent per-entry
// lookups. dir is the logical path of the listed directory ("" for the
// mount root).
func (c *Cache) BulkUpdateFromListing(dir string, entries []ListingEntry) {
	for _, e := range entries {
		child := e.Name
		if dir != "" {
			child = dir + "/" + e.Name
		}
		c.Insert(child, e.Tier)
	}
}

// Stats returns a snapshot of the observability counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
