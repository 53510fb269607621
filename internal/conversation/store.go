// ABOUTME: ConversationStore holds the message history of the selected conversation
// ABOUTME: Load results are applied only while their ticket is still current

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/quickchat/internal/chat"
	"github.com/2389/quickchat/internal/notify"
)

// Service is what the store needs from the persistence layer.
type Service interface {
	FetchConversation(ctx context.Context, peerID string) ([]chat.Message, error)
	SendMessage(ctx context.Context, req chat.SendRequest) (chat.Message, error)
}

// Ticket identifies one history load. It goes stale as soon as another load
// begins or the store is reset.
type Ticket struct {
	Peer       string
	generation uint64
}

// Change describes a visible history update. Replaced is set when the whole
// history was swapped (load applied or reset); otherwise Appended holds the
// new messages.
type Change struct {
	Peer     string
	Replaced bool
	Appended []chat.Message
}

// Store is the history of exactly one conversation.
type Store struct {
	svc    Service
	logger *slog.Logger

	mu         sync.RWMutex
	peer       string
	generation uint64
	loaded     bool
	history    []chat.Message
	ids        map[string]struct{}
	pending    []chat.Message // arrived while the history was not loaded
	pendingIDs map[string]struct{}

	observers notify.Observers[Change]
}

// NewStore creates an empty store. Pass nil logger for default.
func NewStore(svc Service, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		svc:        svc,
		logger:     logger.With("component", "conversation"),
		ids:        make(map[string]struct{}),
		pendingIDs: make(map[string]struct{}),
	}
}

// Begin records peer as the requested conversation and returns the ticket
// for the load that follows. Switching peers drops the previous history.
func (s *Store) Begin(peer string) Ticket {
	s.mu.Lock()
	s.generation++
	t := Ticket{Peer: peer, generation: s.generation}
	switched := peer != s.peer
	hadHistory := len(s.history) > 0
	if switched {
		s.peer = peer
		s.history = nil
		s.ids = make(map[string]struct{})
		s.pending = nil
		s.pendingIDs = make(map[string]struct{})
	}
	s.loaded = false
	s.mu.Unlock()

	if switched && hadHistory {
		s.observers.Notify(Change{Peer: peer, Replaced: true})
	}
	return t
}

// Finish fetches the history for t and applies it if t is still current.
// A stale result, successful or not, is discarded and reported as
// applied == false with a nil error.
func (s *Store) Finish(ctx context.Context, t Ticket) (applied bool, err error) {
	msgs, err := s.svc.FetchConversation(ctx, t.Peer)
	if err != nil {
		if !s.Current(t) {
			s.logger.Debug("discarding stale history failure", "peer", t.Peer, "error", err)
			return false, nil
		}
		if !errors.Is(err, chat.ErrFetch) {
			err = fmt.Errorf("%w: %w", chat.ErrFetch, err)
		}
		return false, err
	}
	return s.apply(t, msgs), nil
}

// Load begins and finishes a history load for peer.
func (s *Store) Load(ctx context.Context, peer string) (applied bool, err error) {
	return s.Finish(ctx, s.Begin(peer))
}

// Current reports whether t belongs to the latest load.
func (s *Store) Current(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.generation == s.generation && t.Peer == s.peer
}

func (s *Store) apply(t Ticket, fetched []chat.Message) bool {
	s.mu.Lock()
	if t.generation != s.generation || t.Peer != s.peer {
		s.mu.Unlock()
		s.logger.Debug("discarding stale history", "peer", t.Peer, "messages", len(fetched))
		return false
	}

	history := make([]chat.Message, 0, len(fetched)+len(s.pending))
	ids := make(map[string]struct{}, cap(history))
	sorted := make([]chat.Message, len(fetched))
	copy(sorted, fetched)
	chat.SortMessages(sorted)
	for _, m := range sorted {
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = struct{}{}
		history = append(history, m)
	}
	merged := 0
	for _, m := range s.pending {
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = struct{}{}
		history = append(history, m)
		merged++
	}

	s.history = history
	s.ids = ids
	s.pending = nil
	s.pendingIDs = make(map[string]struct{})
	s.loaded = true
	n := len(history)
	s.mu.Unlock()

	s.logger.Debug("history applied", "peer", t.Peer, "messages", n, "merged_pending", merged)
	s.observers.Notify(Change{Peer: t.Peer, Replaced: true})
	return true
}

// Append adds msg to the history if it belongs to the requested conversation
// and its ID is new. While the history is loading the message is held back
// and merged when the load is applied. It reports whether msg was accepted.
func (s *Store) Append(msg chat.Message) bool {
	s.mu.Lock()
	if s.peer == "" || !msg.Involves(s.peer) {
		s.mu.Unlock()
		return false
	}
	if _, dup := s.ids[msg.ID]; dup {
		s.mu.Unlock()
		return false
	}
	if _, dup := s.pendingIDs[msg.ID]; dup {
		s.mu.Unlock()
		return false
	}

	if !s.loaded {
		s.pending = append(s.pending, msg)
		s.pendingIDs[msg.ID] = struct{}{}
		s.mu.Unlock()
		return true
	}

	s.history = append(s.history, msg)
	s.ids[msg.ID] = struct{}{}
	peer := s.peer
	s.mu.Unlock()

	s.observers.Notify(Change{Peer: peer, Appended: []chat.Message{msg}})
	return true
}

// Send validates out, delivers it to the requested peer and appends the
// stored message. Failures leave the history unchanged.
func (s *Store) Send(ctx context.Context, out chat.OutgoingMessage) (chat.Message, error) {
	peer := s.Peer()
	if peer == "" {
		return chat.Message{}, chat.ErrNoConversation
	}
	req := chat.SendRequest{RecipientID: peer, OutgoingMessage: out.Normalize()}
	if err := req.Validate(); err != nil {
		return chat.Message{}, err
	}

	msg, err := s.svc.SendMessage(ctx, req)
	if err != nil {
		if !errors.Is(err, chat.ErrSend) && !errors.Is(err, chat.ErrValidation) {
			err = fmt.Errorf("%w: %w", chat.ErrSend, err)
		}
		s.logger.Warn("send failed", "peer", peer, "error", err)
		return chat.Message{}, err
	}

	s.Append(msg)
	return msg, nil
}

// DrainPending removes and returns the messages held back for a load that
// has not been applied, in arrival order.
func (s *Store) DrainPending() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	s.pendingIDs = make(map[string]struct{})
	return out
}

// Reset forgets the conversation and invalidates any load in flight.
func (s *Store) Reset() {
	s.mu.Lock()
	s.generation++
	had := s.peer != "" || len(s.history) > 0
	s.peer = ""
	s.loaded = false
	s.history = nil
	s.ids = make(map[string]struct{})
	s.pending = nil
	s.pendingIDs = make(map[string]struct{})
	s.mu.Unlock()

	if had {
		s.observers.Notify(Change{Replaced: true})
	}
}

// Peer returns the requested conversation, empty when none.
func (s *Store) Peer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peer
}

// Loaded reports whether the requested conversation's history is applied.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Messages returns a copy of the history in display order.
func (s *Store) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// OnChange registers fn to run after every visible history change.
func (s *Store) OnChange(fn func(Change)) (remove func()) {
	return s.observers.Add(fn)
}
