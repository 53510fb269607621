// Package client talks to the QuickChat REST API on behalf of the session
// coordinator.
//
// # Overview
//
// Client implements the persistence service the core depends on:
//
//   - FetchUsers: GET /api/messages/users
//   - FetchConversation: GET /api/messages/{peerID}
//   - SendMessage: POST /api/messages/send/{peerID}
//   - UpdateProfile: PUT /api/auth/update-profile
//
// plus the session calls Login, Signup and CheckAuth.
//
// # Authentication
//
// The session token travels in the "token" request header:
//
//	c := client.New(client.Config{BaseURL: "http://localhost:5000"}, logger)
//	c.SetToken(token)
//
// # Errors
//
// The server answers failures either with a non-2xx status or with
// {"success": false, "message": "..."}. Both become a *StatusError wrapped in
// the chat error taxonomy: reads match chat.ErrFetch, writes match
// chat.ErrSend, and 400/422 on writes match chat.ErrValidation. 401 responses
// additionally match chat.ErrUnauthorized.
//
// # Testing
//
// MockClient is an in-memory implementation with per-peer fetch gates so
// tests can hold a history request in flight while other events arrive.
package client
