// ABOUTME: User and Message domain types with ordering and ownership helpers
// ABOUTME: JSON tags match the QuickChat REST and websocket payloads

package chat

import (
	"slices"
	"strings"
	"time"
)

// User is a roster entry. Identity is ID.
type User struct {
	ID         string `json:"_id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

// Message is a single one-to-one chat message.
type Message struct {
	ID          string    `json:"_id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"receiverId"`
	Text        string    `json:"text,omitempty"`
	Image       string    `json:"image,omitempty"`
	Seen        bool      `json:"seen,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsImage reports whether the message carries an image payload.
func (m Message) IsImage() bool {
	return m.Image != ""
}

// Involves reports whether userID is the sender or the recipient.
func (m Message) Involves(userID string) bool {
	return userID != "" && (m.SenderID == userID || m.RecipientID == userID)
}

// Party returns the participant that is not self. For a message self sent to
// itself the result is self.
func (m Message) Party(self string) string {
	if m.SenderID == self {
		return m.RecipientID
	}
	return m.SenderID
}

// Validate checks the message identity and the one-payload invariant.
func (m Message) Validate() error {
	if m.ID == "" {
		return validationError("message id is required")
	}
	if m.SenderID == "" || m.RecipientID == "" {
		return validationError("message %s: sender and recipient are required", m.ID)
	}
	return validatePayload(m.Text, m.Image)
}

// Before reports whether m sorts before other: by CreatedAt, then ID.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// SortMessages orders msgs in place by CreatedAt then ID.
func SortMessages(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})
}

// FilterUsers returns the users whose FullName contains query, ignoring case.
// An empty query returns a copy of users.
func FilterUsers(users []User, query string) []User {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]User, 0, len(users))
	for _, u := range users {
		if query == "" || strings.Contains(strings.ToLower(u.FullName), query) {
			out = append(out, u)
		}
	}
	return out
}

// FormatMessageTime renders the 24-hour HH:MM clock used beside each message.
func FormatMessageTime(t time.Time) string {
	return t.Local().Format("15:04")
}
