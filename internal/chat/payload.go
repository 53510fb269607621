// ABOUTME: Outgoing payload types and their validation rules
// ABOUTME: Covers message sends, profile updates and login/signup credentials

package chat

import (
	"strings"
)

// OutgoingMessage is what the user composes: text or an image data URI.
type OutgoingMessage struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// Normalize trims surrounding whitespace from the text payload.
func (o OutgoingMessage) Normalize() OutgoingMessage {
	o.Text = strings.TrimSpace(o.Text)
	return o
}

// Validate enforces that exactly one payload is present and that an image is
// an image data URI.
func (o OutgoingMessage) Validate() error {
	return validatePayload(o.Text, o.Image)
}

// SendRequest is an OutgoingMessage addressed to a recipient.
type SendRequest struct {
	RecipientID string
	OutgoingMessage
}

// Validate checks the recipient and the payload.
func (r SendRequest) Validate() error {
	if r.RecipientID == "" {
		return validationError("recipient is required")
	}
	return r.OutgoingMessage.Validate()
}

// ProfileUpdate changes the current user's profile. Empty fields are left
// unchanged by the server.
type ProfileUpdate struct {
	FullName   string `json:"fullName,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// Validate requires at least one field and an image data URI for ProfilePic.
func (p ProfileUpdate) Validate() error {
	if strings.TrimSpace(p.FullName) == "" && strings.TrimSpace(p.Bio) == "" && p.ProfilePic == "" {
		return validationError("profile update is empty")
	}
	if p.ProfilePic != "" {
		if _, _, err := ParseDataURI(p.ProfilePic); err != nil {
			return err
		}
	}
	return nil
}

// Credentials are submitted to sign up or log in.
type Credentials struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
}

// ValidateLogin requires an email and a password.
func (c Credentials) ValidateLogin() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return validationError("email and password are required")
	}
	return nil
}

// ValidateSignup requires every field.
func (c Credentials) ValidateSignup() error {
	if strings.TrimSpace(c.FullName) == "" || strings.TrimSpace(c.Bio) == "" {
		return validationError("full name and bio are required")
	}
	return c.ValidateLogin()
}

func validatePayload(text, image string) error {
	hasText := strings.TrimSpace(text) != ""
	hasImage := image != ""

	switch {
	case !hasText && !hasImage:
		return validationError("message needs text or an image")
	case hasText && hasImage:
		return validationError("message cannot carry both text and an image")
	case hasImage:
		_, _, err := ParseDataURI(image)
		return err
	}
	return nil
}
