// ABOUTME: Tracks which users are currently online from transport presence events
// ABOUTME: Last applied event wins; snapshots replace the whole set

// Package presence keeps the last-known set of online users.
package presence

import (
	"slices"
	"sync"

	"github.com/2389/quickchat/internal/notify"
)

// ChangeKind says what kind of event changed the online set.
type ChangeKind string

const (
	ChangeSnapshot ChangeKind = "snapshot"
	ChangeOnline   ChangeKind = "online"
	ChangeOffline  ChangeKind = "offline"
)

// Change describes one applied presence update.
type Change struct {
	Kind   ChangeKind
	UserID string // empty for snapshots
	Count  int    // online count after the change
}

// Tracker is the set of online user IDs. Unknown IDs are offline.
type Tracker struct {
	mu        sync.RWMutex
	online    map[string]struct{}
	observers notify.Observers[Change]
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{online: make(map[string]struct{})}
}

// ApplySnapshot replaces the tracked set with ids. Empty ids are skipped.
func (t *Tracker) ApplySnapshot(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			next[id] = struct{}{}
		}
	}

	t.mu.Lock()
	t.online = next
	count := len(next)
	t.mu.Unlock()

	t.observers.Notify(Change{Kind: ChangeSnapshot, Count: count})
}

// MarkOnline adds id. Observers are notified only if id was offline.
func (t *Tracker) MarkOnline(id string) {
	if id == "" {
		return
	}

	t.mu.Lock()
	_, had := t.online[id]
	t.online[id] = struct{}{}
	count := len(t.online)
	t.mu.Unlock()

	if !had {
		t.observers.Notify(Change{Kind: ChangeOnline, UserID: id, Count: count})
	}
}

// MarkOffline removes id. Observers are notified only if id was online.
func (t *Tracker) MarkOffline(id string) {
	t.mu.Lock()
	_, had := t.online[id]
	delete(t.online, id)
	count := len(t.online)
	t.mu.Unlock()

	if had {
		t.observers.Notify(Change{Kind: ChangeOffline, UserID: id, Count: count})
	}
}

// IsOnline reports whether id is in the online set.
func (t *Tracker) IsOnline(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[id]
	return ok
}

// Online returns the online IDs in sorted order.
func (t *Tracker) Online() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Count returns the number of online users.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}

// OnChange registers fn to run after every effective change.
func (t *Tracker) OnChange(fn func(Change)) (remove func()) {
	return t.observers.Add(fn)
}
