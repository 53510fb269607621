// ABOUTME: Roster, history and send calls against the QuickChat messages API
// ABOUTME: Maps wire responses into chat domain types

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/2389/quickchat/internal/chat"
)

type usersResponse struct {
	Users          []chat.User    `json:"users"`
	UnseenMessages map[string]int `json:"unseenMessages"`
}

type messagesResponse struct {
	Messages []chat.Message `json:"messages"`
}

type sendResponse struct {
	NewMessage chat.Message `json:"newMessage"`
}

// FetchUsers returns every user except the caller.
func (c *Client) FetchUsers(ctx context.Context) ([]chat.User, error) {
	var resp usersResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages/users", nil, &resp); err != nil {
		return nil, classify(chat.ErrFetch, err)
	}
	if resp.Users == nil {
		resp.Users = []chat.User{}
	}
	return resp.Users, nil
}

// FetchConversation returns the history between the caller and peerID.
func (c *Client) FetchConversation(ctx context.Context, peerID string) ([]chat.Message, error) {
	if peerID == "" {
		return nil, fmt.Errorf("%w: peer id required", chat.ErrValidation)
	}

	var resp messagesResponse
	path := "/api/messages/" + url.PathEscape(peerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, classify(chat.ErrFetch, err)
	}
	if resp.Messages == nil {
		resp.Messages = []chat.Message{}
	}
	return resp.Messages, nil
}

// SendMessage posts a text or image message and returns the stored message
// with its server-assigned ID and timestamp.
func (c *Client) SendMessage(ctx context.Context, req chat.SendRequest) (chat.Message, error) {
	if err := req.Validate(); err != nil {
		return chat.Message{}, err
	}

	var resp sendResponse
	path := "/api/messages/send/" + url.PathEscape(req.RecipientID)
	if err := c.do(ctx, http.MethodPost, path, req.OutgoingMessage, &resp); err != nil {
		return chat.Message{}, classify(chat.ErrSend, err)
	}
	if resp.NewMessage.ID == "" {
		return chat.Message{}, fmt.Errorf("%w: response missing message", chat.ErrSend)
	}
	return resp.NewMessage, nil
}
