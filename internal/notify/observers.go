// ABOUTME: Synchronous observer list used by chat state containers
// ABOUTME: Callbacks run on the notifying goroutine after the container lock is released

package notify

import (
	"slices"
	"sync"
)

// Observers holds callbacks interested in values of type T.
// The zero value is ready to use.
type Observers[T any] struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(T)
}

// Add registers fn and returns a function that removes it again.
func (o *Observers[T]) Add(fn func(T)) (remove func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	id := o.nextID
	o.nextID++
	o.fns[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	}
}

// Notify calls every registered callback with v, in registration order.
func (o *Observers[T]) Notify(v T) {
	o.mu.RLock()
	ids := make([]int, 0, len(o.fns))
	for id := range o.fns {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of registered callbacks.
func (o *Observers[T]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.fns)
}
