// ABOUTME: Per-conversation unseen message counters
// ABOUTME: Incremented for messages from non-selected peers, cleared on selection

// Package unseen counts messages received while their conversation was not
// the selected one.
package unseen

import (
	"maps"
	"sync"

	"github.com/2389/quickchat/internal/notify"
)

// Change reports the new count for one conversation. ConversationID is empty
// after Reset.
type Change struct {
	ConversationID string
	Count          int
}

// Counter maps a peer user ID to its unseen message count.
type Counter struct {
	mu        sync.RWMutex
	counts    map[string]int
	observers notify.Observers[Change]
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Increment adds one to the conversation's count, creating it at 1.
func (c *Counter) Increment(conversationID string) int {
	c.mu.Lock()
	c.counts[conversationID]++
	n := c.counts[conversationID]
	c.mu.Unlock()

	c.observers.Notify(Change{ConversationID: conversationID, Count: n})
	return n
}

// Clear sets the conversation's count to zero. Observers hear about it only
// when the count was non-zero.
func (c *Counter) Clear(conversationID string) {
	c.mu.Lock()
	prev, had := c.counts[conversationID]
	c.counts[conversationID] = 0
	c.mu.Unlock()

	if had && prev != 0 {
		c.observers.Notify(Change{ConversationID: conversationID, Count: 0})
	}
}

// Get returns the count, 0 for unknown conversations.
func (c *Counter) Get(conversationID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[conversationID]
}

// Total sums every count.
func (c *Counter) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Snapshot returns a copy of the non-zero counts.
func (c *Counter) Snapshot() map[string]int {
	c.mu.RLock()
	out := maps.Clone(c.counts)
	c.mu.RUnlock()

	maps.DeleteFunc(out, func(_ string, n int) bool { return n == 0 })
	return out
}

// Reset drops every count.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.counts = make(map[string]int)
	c.mu.Unlock()

	c.observers.Notify(Change{})
}

// OnChange registers fn to run after every effective change.
func (c *Counter) OnChange(fn func(Change)) (remove func()) {
	return c.observers.Add(fn)
}
