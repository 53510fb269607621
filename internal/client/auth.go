// ABOUTME: Login, signup, auth check and profile update calls
// ABOUTME: Successful login or signup installs the returned token on the client

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/2389/quickchat/internal/chat"
)

// Session is the result of a successful login or signup.
type Session struct {
	User  chat.User
	Token string
}

type authResponse struct {
	UserData chat.User `json:"userData"`
	Token    string    `json:"token"`
}

type userResponse struct {
	User chat.User `json:"user"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, creds chat.Credentials) (Session, error) {
	if err := creds.ValidateLogin(); err != nil {
		return Session{}, err
	}
	login := chat.Credentials{Email: creds.Email, Password: creds.Password}
	return c.authenticate(ctx, "/api/auth/login", login)
}

// Signup creates an account and logs in.
func (c *Client) Signup(ctx context.Context, creds chat.Credentials) (Session, error) {
	if err := creds.ValidateSignup(); err != nil {
		return Session{}, err
	}
	return c.authenticate(ctx, "/api/auth/signup", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds chat.Credentials) (Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return Session{}, classify(chat.ErrUnauthorized, err)
	}
	if resp.Token == "" {
		return Session{}, fmt.Errorf("%w: response missing token", chat.ErrUnauthorized)
	}
	c.SetToken(resp.Token)
	return Session{User: resp.UserData, Token: resp.Token}, nil
}

// CheckAuth returns the user the current token belongs to.
func (c *Client) CheckAuth(ctx context.Context) (chat.User, error) {
	if c.Token() == "" {
		return chat.User{}, fmt.Errorf("%w: no session token", chat.ErrUnauthorized)
	}
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &resp); err != nil {
		return chat.User{}, classify(chat.ErrUnauthorized, err)
	}
	return resp.User, nil
}

// UpdateProfile changes the caller's name, bio or picture.
func (c *Client) UpdateProfile(ctx context.Context, update chat.ProfileUpdate) (chat.User, error) {
	if err := update.Validate(); err != nil {
		return chat.User{}, err
	}
	var resp userResponse
	if err := c.do(ctx, http.MethodPut, "/api/auth/update-profile", update, &resp); err != nil {
		return chat.User{}, classify(chat.ErrSend, err)
	}
	return resp.User, nil
}
