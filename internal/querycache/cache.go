// Package querycache holds the results of read queries for a short freshness
// window. Writes are last-writer-wins per key: a result is stored only if no
// invalidation and no newer query for the same key happened since the query
// was issued.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultTTL is the freshness window of cached queries.
const DefaultTTL = 5 * time.Minute

// sweepEvery is how many queries may start between sweeps of idle key states.
const sweepEvery = 64

// Cache stores query results keyed by logical query identity.
type Cache struct {
	mu      sync.Mutex
	items   *cache.Cache
	states  map[string]*keyState
	flushes uint64 // bumped by Flush; tickets from before are void
	begun   uint64
}

// keyState exists while a key has a query in flight or a cached value.
type keyState struct {
	generation uint64 // bumped on invalidation
	issued     uint64 // bumped for every query started
	committed  uint64 // issue number of the stored result
	inflight   int
}

// Ticket identifies one in-flight query.
type Ticket struct {
	key        string
	flush      uint64
	generation uint64
	seq        uint64
}

// Key returns the ticket's cache key.
func (t Ticket) Key() string { return t.key }

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		items:  cache.New(ttl, 2*ttl),
		states: make(map[string]*keyState),
	}
}

// Key joins query parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// Get returns a fresh cached value.
func (c *Cache) Get(key string) (any, bool) {
	return c.items.Get(key)
}

// Begin registers a query about to be issued for key. Every ticket must be
// finished with Commit or Abandon.
func (c *Cache) Begin(key string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begun++
	if c.begun%sweepEvery == 0 {
		c.sweep()
	}

	st, ok := c.states[key]
	if !ok {
		st = &keyState{}
		c.states[key] = st
	}
	st.issued++
	st.inflight++
	return Ticket{key: key, flush: c.flushes, generation: st.generation, seq: st.issued}
}

// ticketState returns the state a ticket was issued against, or nil when the
// ticket predates a Flush.
func (c *Cache) ticketState(t Ticket) *keyState {
	if t.flush != c.flushes {
		return nil
	}
	return c.states[t.key]
}

// Commit stores the query result unless it has been superseded. It reports
// whether the value was stored.
func (c *Cache) Commit(t Ticket, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.ticketState(t)
	if st == nil {
		return false
	}
	st.inflight--
	if t.generation != st.generation || t.seq < st.committed {
		c.prune(t.key, st)
		return false
	}
	st.committed = t.seq
	c.items.SetDefault(t.key, value)
	return true
}

// Abandon finishes a ticket whose query produced no result.
func (c *Cache) Abandon(t Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.ticketState(t); st != nil {
		st.inflight--
		c.prune(t.key, st)
	}
}

// Current reports whether a result for the ticket would still be accepted.
func (c *Cache) Current(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.ticketState(t)
	return st != nil && t.generation == st.generation && t.seq >= st.committed
}

// Invalidate drops key and rejects results of queries already in flight.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Delete(key)
	if st, ok := c.states[key]; ok {
		st.generation++
		c.prune(key, st)
	}
}

// InvalidatePrefix invalidates every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
		}
	}
	for key, st := range c.states {
		if strings.HasPrefix(key, prefix) {
			st.generation++
			c.prune(key, st)
		}
	}
}

// Flush drops every entry, e.g. on sign-out. Queries in flight are rejected.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushes++
	clear(c.states)
	c.items.Flush()
}

// Len reports how many keys the cache is tracking.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}

// prune forgets a key with no query in flight and no fresh value.
func (c *Cache) prune(key string, st *keyState) {
	if st.inflight > 0 {
		return
	}
	if _, ok := c.items.Get(key); ok {
		return
	}
	delete(c.states, key)
}

func (c *Cache) sweep() {
	for key, st := range c.states {
		c.prune(key, st)
	}
}

// Fetch returns the cached value for key or runs fetch and caches its result.
// A superseded result is still returned to its caller but is not cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	ticket := c.Begin(key)
	value, err := fetch(ctx)
	if err != nil {
		c.Abandon(ticket)
		var zero T
		return zero, err
	}
	c.Commit(ticket, value)
	return value, nil
}
