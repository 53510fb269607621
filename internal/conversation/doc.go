// Package conversation holds the message history of the one conversation the
// user has selected.
//
// # Loads
//
// A load is split in two so the caller can register the requested peer
// synchronously and wait for the network without holding its own locks:
//
//	ticket := store.Begin(peerID)
//	applied, err := store.Finish(ctx, ticket)
//
// Load does both in one call. Each Begin bumps a generation counter; Finish
// applies the fetched history only when its ticket still matches the current
// generation and peer. A superseded response is dropped and Finish returns
// applied == false with a nil error.
//
// # Appends
//
// Append accepts a message only when it involves the requested peer and its
// ID has not been seen. Messages that arrive while a load is in flight are
// held back and merged after the fetched history when the load is applied,
// so nothing is lost or doubled by the race between fetch and delivery.
//
// # Sending
//
// Send validates the payload (exactly one of text or image data URI), calls
// the service and appends the stored message. Nothing is inserted
// optimistically, so a failed send leaves the history unchanged:
//
//   - chat.ErrNoConversation when no peer is requested
//   - chat.ErrValidation for a bad payload
//   - chat.ErrSend when the service fails
//
// # Observers
//
// OnChange callbacks run after the store's lock is released. A Change with
// Replaced set means the whole history was swapped; otherwise Appended holds
// the new messages.
package conversation
