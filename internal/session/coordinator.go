// ABOUTME: SessionCoordinator owns selection, routing and the consolidated chat view
// ABOUTME: Wires presence, unseen counters and the conversation store to the service

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/2389/quickchat/internal/chat"
	"github.com/2389/quickchat/internal/conversation"
	"github.com/2389/quickchat/internal/dedupe"
	"github.com/2389/quickchat/internal/notify"
	"github.com/2389/quickchat/internal/presence"
	"github.com/2389/quickchat/internal/transport"
	"github.com/2389/quickchat/internal/unseen"
)

// State is the coordinator's display state.
type State int

const (
	StateNoConversation State = iota
	StateLoading
	StateActive
)

func (s State) String() string {
	switch s {
	case StateNoConversation:
		return "no_conversation"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// UpdateKind says which view changed.
type UpdateKind string

const (
	UpdatePresence  UpdateKind = "presence"
	UpdateUnseen    UpdateKind = "unseen"
	UpdateMessages  UpdateKind = "messages"
	UpdateSelection UpdateKind = "selection"
	UpdateRoster    UpdateKind = "roster"
	UpdateProfile   UpdateKind = "profile"
)

// Update tells subscribers which view changed. ScrollToLatest is set whenever
// the visible history changed.
type Update struct {
	Kind           UpdateKind
	Peer           string
	ScrollToLatest bool
}

// Service is the persistence service the coordinator depends on.
type Service interface {
	conversation.Service
	FetchUsers(ctx context.Context) ([]chat.User, error)
	UpdateProfile(ctx context.Context, update chat.ProfileUpdate) (chat.User, error)
}

// Config defines coordinator settings.
type Config struct {
	Self              chat.User
	DedupeTTL         time.Duration
	DedupeSize        int
	RefreshOnPresence bool
}

// Coordinator is the single owner of the chat state containers.
type Coordinator struct {
	svc               Service
	logger            *slog.Logger
	presence          *presence.Tracker
	unseen            *unseen.Counter
	store             *conversation.Store
	seen              *dedupe.Cache
	updates           *notify.Broadcaster[Update]
	refresh           singleflight.Group
	refreshOnPresence bool
	removers          []func()

	mu       sync.RWMutex
	self     chat.User
	selected string
	state    State
	users    []chat.User
	lastErr  error
}

// New creates a coordinator for cfg.Self. Pass nil logger for default.
func New(svc Service, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		svc:               svc,
		logger:            logger.With("component", "session"),
		presence:          presence.NewTracker(),
		unseen:            unseen.NewCounter(),
		store:             conversation.NewStore(svc, logger),
		seen:              dedupe.New(cfg.DedupeTTL, cfg.DedupeSize),
		updates:           notify.NewBroadcaster[Update](logger),
		refreshOnPresence: cfg.RefreshOnPresence,
		self:              cfg.Self,
	}

	// Observers only publish; they must not take c.mu, which the caller may hold.
	c.removers = append(c.removers,
		c.presence.OnChange(func(ch presence.Change) {
			c.updates.Publish(Update{Kind: UpdatePresence, Peer: ch.UserID})
		}),
		c.unseen.OnChange(func(ch unseen.Change) {
			c.updates.Publish(Update{Kind: UpdateUnseen, Peer: ch.ConversationID})
		}),
		c.store.OnChange(func(ch conversation.Change) {
			c.updates.Publish(Update{
				Kind:           UpdateMessages,
				Peer:           ch.Peer,
				ScrollToLatest: len(ch.Appended) > 0,
			})
		}),
	)
	return c
}

// SelectConversation makes peer the selected conversation and loads its
// history. The peer's unseen count is cleared before the fetch is issued. A
// failed load leaves the peer selected in StateNoConversation and returns the
// error; messages that arrived during it are counted as unseen. A load
// superseded by a later selection returns nil.
func (c *Coordinator) SelectConversation(ctx context.Context, peer string) error {
	if peer == "" {
		return fmt.Errorf("%w: peer id required", chat.ErrValidation)
	}

	c.mu.Lock()
	if c.store.Peer() != peer {
		c.releasePendingLocked()
	}
	c.selected = peer
	c.state = StateLoading
	c.lastErr = nil
	c.unseen.Clear(peer)
	ticket := c.store.Begin(peer)
	c.mu.Unlock()

	c.logger.Debug("conversation selected", "peer", peer)
	c.updates.Publish(Update{Kind: UpdateSelection, Peer: peer})

	applied, err := c.store.Finish(ctx, ticket)

	c.mu.Lock()
	if c.selected != peer || !c.store.Current(ticket) {
		c.mu.Unlock()
		c.logger.Debug("selection superseded", "peer", peer)
		return nil
	}
	if err != nil {
		c.state = StateNoConversation
		c.lastErr = err
		c.releasePendingLocked()
		c.mu.Unlock()
		c.logger.Warn("loading conversation failed", "peer", peer, "error", err)
		c.updates.Publish(Update{Kind: UpdateSelection, Peer: peer})
		return err
	}
	if applied {
		c.state = StateActive
	}
	c.mu.Unlock()

	c.updates.Publish(Update{Kind: UpdateSelection, Peer: peer, ScrollToLatest: applied})
	return nil
}

// DeselectConversation clears the selection and the history. Messages held
// for an unfinished load are counted as unseen.
func (c *Coordinator) DeselectConversation() {
	c.mu.Lock()
	c.releasePendingLocked()
	c.selected = ""
	c.state = StateNoConversation
	c.lastErr = nil
	c.store.Reset()
	c.mu.Unlock()

	c.updates.Publish(Update{Kind: UpdateSelection})
}

// releasePendingLocked moves messages held back for an unapplied load to the
// unseen counters. Caller holds c.mu.
func (c *Coordinator) releasePendingLocked() {
	for _, m := range c.store.DrainPending() {
		c.unseen.Increment(m.Party(c.self.ID))
	}
}

// SendOutgoing sends out to the selected peer. Failures leave presence and
// unseen counts untouched.
func (c *Coordinator) SendOutgoing(ctx context.Context, out chat.OutgoingMessage) (chat.Message, error) {
	c.mu.RLock()
	selected := c.selected
	c.mu.RUnlock()
	if selected == "" {
		return chat.Message{}, chat.ErrNoConversation
	}

	msg, err := c.store.Send(ctx, out)
	if err != nil {
		return chat.Message{}, err
	}

	// The socket echoes our own messages back; remember the ID so the echo is
	// dropped.
	c.mu.Lock()
	c.seen.Observe(msg.ID)
	c.mu.Unlock()
	return msg, nil
}

// RefreshUsers replaces the roster. Concurrent calls share one request. On
// failure the roster keeps its last-known value.
func (c *Coordinator) RefreshUsers(ctx context.Context) error {
	_, err, shared := c.refresh.Do("users", func() (any, error) {
		users, err := c.svc.FetchUsers(ctx)
		if err != nil {
			if !errors.Is(err, chat.ErrFetch) {
				err = fmt.Errorf("%w: %w", chat.ErrFetch, err)
			}
			return nil, err
		}

		c.mu.Lock()
		selfID := c.self.ID
		roster := make([]chat.User, 0, len(users))
		for _, u := range users {
			if u.ID != "" && u.ID != selfID {
				roster = append(roster, u)
			}
		}
		c.users = roster
		c.mu.Unlock()

		c.updates.Publish(Update{Kind: UpdateRoster})
		return nil, nil
	})
	if err != nil {
		c.logger.Warn("refreshing users failed", "error", err, "shared", shared)
	}
	return err
}

// UpdateProfile changes the current user's profile and refreshes Self.
func (c *Coordinator) UpdateProfile(ctx context.Context, update chat.ProfileUpdate) (chat.User, error) {
	if err := update.Validate(); err != nil {
		return chat.User{}, err
	}

	u, err := c.svc.UpdateProfile(ctx, update)
	if err != nil {
		if !errors.Is(err, chat.ErrSend) && !errors.Is(err, chat.ErrValidation) {
			err = fmt.Errorf("%w: %w", chat.ErrSend, err)
		}
		return chat.User{}, err
	}

	c.mu.Lock()
	if u.ID == "" {
		u.ID = c.self.ID
	}
	c.self = u
	for i := range c.users {
		if c.users[i].ID == u.ID {
			c.users[i] = u
		}
	}
	c.mu.Unlock()

	c.updates.Publish(Update{Kind: UpdateProfile, Peer: u.ID})
	return u, nil
}

// HandleEvent applies one transport event.
func (c *Coordinator) HandleEvent(ev transport.Event) {
	switch ev.Type {
	case transport.EventSnapshot:
		c.presence.ApplySnapshot(ev.UserIDs)
	case transport.EventOnline:
		c.presence.MarkOnline(ev.UserID)
	case transport.EventOffline:
		c.presence.MarkOffline(ev.UserID)
	case transport.EventMessage:
		if ev.Message != nil {
			c.ReceiveMessage(*ev.Message)
		}
	default:
		c.logger.Debug("ignoring event", "type", ev.Type)
	}
}

// Run applies events until the channel closes or ctx ends. When
// RefreshOnPresence is set, a change in the number of online users triggers
// a roster refresh in the background.
func (c *Coordinator) Run(ctx context.Context, events <-chan transport.Event) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			before := c.presence.Count()
			c.HandleEvent(ev)
			if c.refreshOnPresence && ev.IsPresence() && c.presence.Count() != before {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = c.RefreshUsers(ctx)
				}()
			}
		}
	}
}

// Reset clears selection, history, unseen counts, presence and roster, as on
// logout.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.selected = ""
	c.state = StateNoConversation
	c.lastErr = nil
	c.users = nil
	c.store.Reset()
	c.unseen.Reset()
	c.presence.ApplySnapshot(nil)
	c.seen.Reset()
	c.mu.Unlock()

	c.updates.Publish(Update{Kind: UpdateSelection})
	c.updates.Publish(Update{Kind: UpdateRoster})
}

// Subscribe returns a channel of updates that closes when ctx ends.
func (c *Coordinator) Subscribe(ctx context.Context) (<-chan Update, string) {
	return c.updates.Subscribe(ctx)
}

// Close detaches observers and closes every subscription.
func (c *Coordinator) Close() {
	for _, remove := range c.removers {
		remove()
	}
	c.updates.Close()
}
