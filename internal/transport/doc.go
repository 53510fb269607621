// Package transport delivers realtime presence and message events from the
// QuickChat socket server.
//
// # Protocol
//
// The subscriber dials {socket_url}/ws?userId=<id> with the session token in
// the "token" header and reads JSON text frames:
//
//	{"type":"snapshot","userIds":["u1","u2"]}
//	{"type":"online","userId":"u3"}
//	{"type":"offline","userId":"u1"}
//	{"type":"message","message":{"_id":"...","senderId":"...", ...}}
//
// Frames with an unknown type or that fail to decode are logged and skipped.
//
// # Reconnects
//
// A dropped connection is not an error. Run waits with exponential backoff
// between ReconnectMin and ReconnectMax and dials again; the server sends a
// fresh snapshot on every connect, which resynchronises presence. Run returns
// only when its context ends.
package transport
