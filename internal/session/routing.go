// ABOUTME: Routes each inbound message to the open history or an unseen counter
// ABOUTME: Duplicate deliveries and echoes of sent messages are dropped

package session

import (
	"github.com/2389/quickchat/internal/chat"
)

// Route says where ReceiveMessage sent a message.
type Route int

const (
	RouteIgnored Route = iota
	RouteHistory
	RouteUnseen
	RouteDuplicate
)

func (r Route) String() string {
	switch r {
	case RouteHistory:
		return "history"
	case RouteUnseen:
		return "unseen"
	case RouteDuplicate:
		return "duplicate"
	default:
		return "ignored"
	}
}

// ReceiveMessage attributes msg to the selected conversation's history or to
// the other party's unseen count, never both. Only a conversation that is
// loading or active takes messages into its history.
func (c *Coordinator) ReceiveMessage(msg chat.Message) Route {
	if err := msg.Validate(); err != nil {
		c.logger.Debug("dropping invalid message", "error", err)
		return RouteIgnored
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	selfID := c.self.ID
	if selfID != "" && !msg.Involves(selfID) {
		c.logger.Debug("dropping message for another user", "message_id", msg.ID)
		return RouteIgnored
	}
	if c.seen.Observe(msg.ID) {
		return RouteDuplicate
	}

	peer := msg.Party(selfID)
	if c.selected != "" && peer == c.selected && c.state != StateNoConversation {
		c.store.Append(msg)
		return RouteHistory
	}

	c.unseen.Increment(peer)
	return RouteUnseen
}
