// Package session coordinates the chat client's state: which conversation is
// selected, its history, who is online and how many messages each other
// conversation has waiting.
//
// # States
//
// A Coordinator is in one of three states:
//
//   - NoConversation: nothing selected, or the last load failed
//   - Loading: a conversation was selected and its history is being fetched
//   - Active: the selected conversation's history is displayed
//
// SelectConversation clears the peer's unseen count and registers the load
// before any network call, so a message for that peer arriving mid-load is
// never counted as unseen. If the user picks another peer before the first
// load returns, the first response is discarded.
//
// # Routing
//
// ReceiveMessage attributes every inbound message to exactly one place:
//
//   - RouteHistory: the message belongs to the selected conversation, which
//     is loading or active
//   - RouteUnseen: the other party's unseen count went up by one, including
//     our own messages sent from another device
//   - RouteDuplicate: the same message ID was already routed or sent
//   - RouteIgnored: invalid or not addressed to us
//
// Messages held for a load that never applies (the load failed, the user
// picked another peer, or deselected) are moved to the unseen counts.
//
// # Updates
//
// Views (State, Messages, Users, Unseen, IsOnline, ...) are safe to read from
// any goroutine. Renderers subscribe for change notifications:
//
//	updates, _ := coord.Subscribe(ctx)
//	for u := range updates {
//		if u.ScrollToLatest {
//			// redraw history and scroll to the bottom
//		}
//	}
//
// Subscribers that fall behind lose updates rather than blocking the
// coordinator; views always return the current state.
//
// # Locking
//
// The coordinator's mutex serialises selection and routing and is never held
// across a network call. It is always taken before a container's lock, and
// container observers never call back into the coordinator.
package session
