// Package linecache memoizes analysed lines. Analysis is a pure function of
// the line text and the analyzer settings, so a hit is always valid until
// the entry expires.
package linecache

import (
	"slices"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// Entry is the cached analysis of one line, independent of its index.
type Entry struct {
	Focus []citation.Span
	Dim   []citation.Span
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Items  int
}

// Cache is an in-memory line cache backed by go-cache.
type Cache struct {
	cache  *gocache.Cache
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache. Non-positive durations fall back to the defaults.
func New(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Cache{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func key(namespace, text string) string {
	return namespace + "\x00" + text
}

// Get returns the entry for text under namespace. The namespace identifies
// the analyzer settings that produced the entry.
func (c *Cache) Get(namespace, text string) (Entry, bool) {
	value, found := c.cache.Get(key(namespace, text))
	if !found {
		c.misses.Add(1)
		return Entry{}, false
	}

	entry, ok := value.(Entry)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "namespace", namespace)
		c.misses.Add(1)
		return Entry{}, false
	}

	c.hits.Add(1)
	return entry.clone(), true
}

// Set stores entry with the cache's default TTL.
func (c *Cache) Set(namespace, text string, entry Entry) {
	c.cache.Set(key(namespace, text), entry.clone(), c.ttl)
}

// GetOrCompute returns the cached entry or computes, stores and returns it.
// Errors are not cached.
func (c *Cache) GetOrCompute(namespace, text string, fn func() (Entry, error)) (Entry, error) {
	if entry, ok := c.Get(namespace, text); ok {
		return entry, nil
	}
	entry, err := fn()
	if err != nil {
		return Entry{}, err
	}
	c.Set(namespace, text, entry)
	return entry, nil
}

// Flush removes all entries and resets the counters.
func (c *Cache) Flush() {
	c.cache.Flush()
	c.hits.Store(0)
	c.misses.Store(0)
	log.Debug(log.CatCache, "line cache flushed")
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.cache.ItemCount(),
	}
}

func (e Entry) clone() Entry {
	return Entry{Focus: slices.Clone(e.Focus), Dim: slices.Clone(e.Dim)}
}
