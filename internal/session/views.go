// ABOUTME: Read-only views over the coordinator's consolidated state
// ABOUTME: Every view returns a copy and is safe to call from any goroutine

package session

import (
	"github.com/2389/quickchat/internal/chat"
)

// State returns the display state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Selected returns the selected peer. It stays set after a failed load so the
// caller can retry.
func (c *Coordinator) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Messages returns the visible history. After a failed reload of the same
// peer it is the last history that loaded; otherwise it is empty unless
// Active.
func (c *Coordinator) Messages() []chat.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.state == StateActive:
		return c.store.Messages()
	case c.lastErr != nil && c.selected != "" && c.store.Peer() == c.selected:
		return c.store.Messages()
	default:
		return nil
	}
}

// LastError returns the error of the last failed load, nil after a success
// or a new selection.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// IsOnline reports whether userID is connected.
func (c *Coordinator) IsOnline(userID string) bool {
	return c.presence.IsOnline(userID)
}

// Online returns the online user IDs, sorted.
func (c *Coordinator) Online() []string {
	return c.presence.Online()
}

// Unseen returns the unseen count for peer.
func (c *Coordinator) Unseen(peer string) int {
	return c.unseen.Get(peer)
}

// UnseenCounts returns every non-zero unseen count.
func (c *Coordinator) UnseenCounts() map[string]int {
	return c.unseen.Snapshot()
}

// Users returns the roster, excluding the current user.
func (c *Coordinator) Users() []chat.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]chat.User, len(c.users))
	copy(out, c.users)
	return out
}

// FilterUsers returns the roster entries whose name contains query.
func (c *Coordinator) FilterUsers(query string) []chat.User {
	return chat.FilterUsers(c.Users(), query)
}

// User looks up a roster entry by ID.
func (c *Coordinator) User(id string) (chat.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.ID == id {
			return u, true
		}
	}
	return chat.User{}, false
}

// Self returns the current user.
func (c *Coordinator) Self() chat.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self
}
