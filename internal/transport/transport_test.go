// ABOUTME: Tests for socket event decoding and the reconnecting subscriber
// ABOUTME: Uses an httptest server with a gorilla Upgrader as the socket server

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"snapshot","userIds":["u1","u2"]}`))
	require.NoError(t, err)
	assert.Equal(t, EventSnapshot, ev.Type)
	assert.Equal(t, []string{"u1", "u2"}, ev.UserIDs)
	assert.True(t, ev.IsPresence())

	ev, err = DecodeEvent([]byte(`{"type":"snapshot"}`))
	require.NoError(t, err)
	assert.NotNil(t, ev.UserIDs)

	ev, err = DecodeEvent([]byte(`{"type":"message","message":{"_id":"m1","senderId":"u1","receiverId":"me","text":"hi","createdAt":"2026-01-01T12:00:00Z"}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "m1", ev.Message.ID)
	assert.False(t, ev.IsPresence())
}

func TestDecodeEvent_Rejects(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"typing","userId":"u1"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	for _, raw := range []string{
		`not json`,
		`{"type":"online"}`,
		`{"type":"offline","userId":""}`,
		`{"type":"message"}`,
	} {
		_, err := DecodeEvent([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "http://localhost:5000", want: "ws://localhost:5000/ws?userId=me"},
		{base: "https://chat.example.com/", want: "wss://chat.example.com/ws?userId=me"},
		{base: "ws://host/socket", want: "ws://host/socket/ws?userId=me"},
	}
	for _, tt := range tests {
		s := NewSubscriber(Config{URL: tt.base, UserID: "me"}, nil)
		got, err := s.Endpoint()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NewSubscriber(Config{URL: "ftp://host", UserID: "me"}, nil).Endpoint()
	assert.Error(t, err)
}

// socketServer upgrades every request and hands the connection to serve.
func socketServer(t *testing.T, serve func(n int, r *http.Request, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(int(connections.Add(1)), r, conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func receive(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscriber_StreamsEvents(t *testing.T) {
	srv := socketServer(t, func(n int, r *http.Request, conn *websocket.Conn) {
		assert.Equal(t, "/ws", r.URL.Path)
		assert.Equal(t, "me", r.URL.Query().Get("userId"))
		assert.Equal(t, "tok", r.Header.Get("token"))

		for _, frame := range []string{
			`{"type":"snapshot","userIds":["u1"]}`,
			`{"type":"typing","userId":"u1"}`,
			`{"type":"online","userId":"u2"}`,
			`{"type":"message","message":{"_id":"m1","senderId":"u2","receiverId":"me","text":"hi","createdAt":"2026-01-01T12:00:00Z"}}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(testContext(t))
	events := make(chan Event, 8)
	sub := NewSubscriber(Config{URL: srv.URL, UserID: "me", Token: "tok"}, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sub.Run(ctx, events) }()

	assert.Equal(t, EventSnapshot, receive(t, events).Type)
	ev := receive(t, events)
	assert.Equal(t, EventOnline, ev.Type)
	assert.Equal(t, "u2", ev.UserID)
	ev = receive(t, events)
	require.Equal(t, EventMessage, ev.Type)
	assert.Equal(t, "hi", ev.Message.Text)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSubscriber_Reconnects(t *testing.T) {
	srv := socketServer(t, func(n int, r *http.Request, conn *websocket.Conn) {
		if n == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot","userIds":["u1"]}`))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot","userIds":["u1","u2"]}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	events := make(chan Event, 8)
	sub := NewSubscriber(Config{
		URL:          srv.URL,
		UserID:       "me",
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 20 * time.Millisecond,
	}, nil)
	go func() { _ = sub.Run(ctx, events) }()

	assert.Equal(t, []string{"u1"}, receive(t, events).UserIDs)
	assert.Equal(t, []string{"u1", "u2"}, receive(t, events).UserIDs)
}

func TestSubscriber_DialFailureRetriesUntilCancelled(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(testContext(t), 100*time.Millisecond)
	defer cancel()
	sub := NewSubscriber(Config{URL: srv.URL, UserID: "me", ReconnectMin: 5 * time.Millisecond}, nil)

	err := sub.Run(ctx, make(chan Event))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
