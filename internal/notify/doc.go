// Package notify provides the change-notification primitives shared by the
// chat state containers.
//
// # Observers
//
// Observers is a synchronous callback list. A container calls Notify after it
// has released its own lock, so callbacks may read the container back but must
// not block:
//
//	var obs notify.Observers[Change]
//	remove := obs.Add(func(c Change) { ... })
//	defer remove()
//
// # Broadcaster
//
// Broadcaster is an asynchronous fan-out used to hand updates to rendering
// code running in other goroutines:
//
//	ch, id := b.Subscribe(ctx)
//	b.Publish(update)
//
// Publish never blocks: subscribers whose buffer is full miss the update.
// Subscriptions end when their context is cancelled, on Unsubscribe, or when
// the broadcaster is closed.
package notify
