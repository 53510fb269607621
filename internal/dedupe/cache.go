// ABOUTME: Bounded, time-limited set of recently seen message IDs
// ABOUTME: Expires entries lazily and evicts the oldest entry when full

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

const (
	DefaultTTL     = 10 * time.Minute
	DefaultMaxSize = 1000
)

type entry struct {
	id     string
	seenAt time.Time
}

// Cache is a thread-safe seen-set with a TTL and a size bound. Entries are
// kept in insertion order so both expiry and eviction start at the front.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	index   map[string]*list.Element
	order   *list.List // of *entry, oldest at front
	now     func() time.Time
}

// New creates a cache. Non-positive arguments fall back to the defaults.
func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		index:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Seen reports whether id was observed within the TTL.
func (c *Cache) Seen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	_, ok := c.index[id]
	return ok
}

// Observe records id and reports whether it had already been seen within the
// TTL. Check and record happen under one lock so two deliveries racing each
// other cannot both be treated as new. Empty ids are never duplicates.
func (c *Cache) Observe(id string) (duplicate bool) {
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	if _, ok := c.index[id]; ok {
		return true
	}

	if c.order.Len() >= c.maxSize {
		c.removeLocked(c.order.Front())
	}
	c.index[id] = c.order.PushBack(&entry{id: id, seenAt: c.now()})
	return false
}

// Forget drops id so a later Observe treats it as new.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[id]; ok {
		c.removeLocked(el)
	}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	return c.order.Len()
}

// expireLocked drops entries older than the TTL. Must be called with mu held.
func (c *Cache) expireLocked() {
	cutoff := c.now().Add(-c.ttl)
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		e, _ := front.Value.(*entry)
		if e.seenAt.After(cutoff) {
			return
		}
		c.removeLocked(front)
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	e, _ := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.index, e.id)
}
