// ABOUTME: In-memory persistence service for tests
// ABOUTME: Supports error injection and per-peer gates that hold fetches open

package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quickchat/internal/chat"
)

// Call names recorded by MockClient.
const (
	CallFetchUsers        = "FetchUsers"
	CallFetchConversation = "FetchConversation"
	CallSendMessage       = "SendMessage"
	CallUpdateProfile     = "UpdateProfile"
)

// MockClient is an in-memory persistence service. Conversation fetches take
// their snapshot when the call starts, so a gated fetch returns the history as
// it was at request time.
type MockClient struct {
	mu        sync.Mutex
	self      chat.User
	users     []chat.User
	messages  map[string][]chat.Message // keyed by peer ID
	gates     map[string]chan struct{}  // keyed by peer ID
	waiting   map[string]int
	fetchErrs map[string]error
	usersErr  error
	sendErr   error
	updateErr error
	calls     map[string]int
	sent      []chat.SendRequest
	clock     time.Time
}

// NewMockClient creates a MockClient acting as self.
func NewMockClient(self chat.User) *MockClient {
	return &MockClient{
		self:      self,
		messages:  make(map[string][]chat.Message),
		gates:     make(map[string]chan struct{}),
		waiting:   make(map[string]int),
		fetchErrs: make(map[string]error),
		calls:     make(map[string]int),
		clock:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// AddUser adds a roster entry.
func (m *MockClient) AddUser(u chat.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

// AddMessage stores msg under the participant that is not the mock's user.
func (m *MockClient) AddMessage(msg chat.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	peer := msg.Party(m.self.ID)
	m.messages[peer] = append(m.messages[peer], msg)
}

// NewMessage builds a message with a fresh ID and a strictly increasing
// timestamp. It is not stored.
func (m *MockClient) NewMessage(from, to, text string) chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return chat.Message{
		ID:          uuid.New().String(),
		SenderID:    from,
		RecipientID: to,
		Text:        text,
		CreatedAt:   m.tickLocked(),
	}
}

// Hold makes FetchConversation for peer block until release is called or the
// caller's context ends. release is idempotent.
func (m *MockClient) Hold(peer string) (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.gates[peer] = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gates[peer] == gate {
				delete(m.gates, peer)
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Waiting returns how many fetches for peer are blocked on a gate.
func (m *MockClient) Waiting(peer string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting[peer]
}

// FailFetch makes FetchConversation for peer fail with err. nil clears it.
func (m *MockClient) FailFetch(peer string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fetchErrs, peer)
		return
	}
	m.fetchErrs[peer] = err
}

// FailUsers makes FetchUsers fail with err. nil clears it.
func (m *MockClient) FailUsers(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersErr = err
}

// FailSend makes SendMessage fail with err. nil clears it.
func (m *MockClient) FailSend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// FailUpdate makes UpdateProfile fail with err. nil clears it.
func (m *MockClient) FailUpdate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

// Calls returns how many times the named call was made.
func (m *MockClient) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// Sent returns the accepted send requests in order.
func (m *MockClient) Sent() []chat.SendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.SendRequest, len(m.sent))
	copy(out, m.sent)
	return out
}

// FetchUsers returns the roster.
func (m *MockClient) FetchUsers(ctx context.Context) ([]chat.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[CallFetchUsers]++

	if m.usersErr != nil {
		return nil, fmt.Errorf("%w: %w", chat.ErrFetch, m.usersErr)
	}
	out := make([]chat.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

// FetchConversation returns the stored history with peerID.
func (m *MockClient) FetchConversation(ctx context.Context, peerID string) ([]chat.Message, error) {
	m.mu.Lock()
	m.calls[CallFetchConversation]++
	fetchErr := m.fetchErrs[peerID]
	history := make([]chat.Message, len(m.messages[peerID]))
	copy(history, m.messages[peerID])
	gate := m.gates[peerID]
	if gate != nil {
		m.waiting[peerID]++
	}
	m.mu.Unlock()

	if gate != nil {
		defer func() {
			m.mu.Lock()
			m.waiting[peerID]--
			m.mu.Unlock()
		}()
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", chat.ErrFetch, ctx.Err())
		}
	}

	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %w", chat.ErrFetch, fetchErr)
	}
	return history, nil
}

// SendMessage stores the message from the mock's user and returns it.
func (m *MockClient) SendMessage(ctx context.Context, req chat.SendRequest) (chat.Message, error) {
	if err := req.Validate(); err != nil {
		return chat.Message{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[CallSendMessage]++

	if m.sendErr != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", chat.ErrSend, m.sendErr)
	}
	msg := chat.Message{
		ID:          uuid.New().String(),
		SenderID:    m.self.ID,
		RecipientID: req.RecipientID,
		Text:        req.Text,
		Image:       req.Image,
		CreatedAt:   m.tickLocked(),
	}
	m.sent = append(m.sent, req)
	m.messages[req.RecipientID] = append(m.messages[req.RecipientID], msg)
	return msg, nil
}

// UpdateProfile applies the non-empty fields to the mock's user.
func (m *MockClient) UpdateProfile(ctx context.Context, update chat.ProfileUpdate) (chat.User, error) {
	if err := update.Validate(); err != nil {
		return chat.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[CallUpdateProfile]++

	if m.updateErr != nil {
		return chat.User{}, fmt.Errorf("%w: %w", chat.ErrSend, m.updateErr)
	}
	if update.FullName != "" {
		m.self.FullName = update.FullName
	}
	if update.Bio != "" {
		m.self.Bio = update.Bio
	}
	if update.ProfilePic != "" {
		m.self.ProfilePic = update.ProfilePic
	}
	return m.self, nil
}

func (m *MockClient) tickLocked() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}
