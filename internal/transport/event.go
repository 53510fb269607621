// ABOUTME: Realtime event types carried on the presence socket
// ABOUTME: Decodes JSON frames into snapshot, online, offline and message events

package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/quickchat/internal/chat"
)

// EventType names a socket frame.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventOnline   EventType = "online"
	EventOffline  EventType = "offline"
	EventMessage  EventType = "message"
)

// ErrUnknownEvent is returned by DecodeEvent for frames it does not understand.
var ErrUnknownEvent = errors.New("unknown event")

// Event is one decoded socket frame.
type Event struct {
	Type    EventType     `json:"type"`
	UserIDs []string      `json:"userIds,omitempty"`
	UserID  string        `json:"userId,omitempty"`
	Message *chat.Message `json:"message,omitempty"`
}

// IsPresence reports whether the event changes the online set.
func (e Event) IsPresence() bool {
	switch e.Type {
	case EventSnapshot, EventOnline, EventOffline:
		return true
	}
	return false
}

// DecodeEvent parses a frame and checks that it carries what its type needs.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}

	switch ev.Type {
	case EventSnapshot:
		if ev.UserIDs == nil {
			ev.UserIDs = []string{}
		}
	case EventOnline, EventOffline:
		if ev.UserID == "" {
			return Event{}, fmt.Errorf("%s event without userId", ev.Type)
		}
	case EventMessage:
		if ev.Message == nil {
			return Event{}, errors.New("message event without message")
		}
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return ev, nil
}
