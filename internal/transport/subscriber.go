// ABOUTME: Websocket subscriber that streams presence and message events
// ABOUTME: Reconnects with exponential backoff until its context ends

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultReconnectMin = time.Second
	DefaultReconnectMax = 30 * time.Second

	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// Config defines subscriber settings.
type Config struct {
	URL          string // http(s):// or ws(s):// base of the socket server
	UserID       string
	Token        string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Dialer       *websocket.Dialer
}

// Subscriber reads events from the socket server.
type Subscriber struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewSubscriber creates a subscriber. Pass nil logger for default.
func NewSubscriber(cfg Config, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = DefaultReconnectMin
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = max(DefaultReconnectMax, cfg.ReconnectMin)
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Subscriber{
		cfg:    cfg,
		dialer: dialer,
		logger: logger.With("component", "transport"),
	}
}

// Endpoint returns the websocket URL the subscriber dials.
func (s *Subscriber) Endpoint() (string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parsing socket url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("userId", s.cfg.UserID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run delivers events to out until ctx ends, reconnecting as needed. It does
// not close out.
func (s *Subscriber) Run(ctx context.Context, out chan<- Event) error {
	endpoint, err := s.Endpoint()
	if err != nil {
		return err
	}

	delay := s.cfg.ReconnectMin
	for {
		connected, err := s.session(ctx, endpoint, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			delay = s.cfg.ReconnectMin
		}
		s.logger.Warn("socket disconnected", "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, s.cfg.ReconnectMax)
	}
}

// session runs one connection. connected reports whether the dial succeeded.
func (s *Subscriber) session(ctx context.Context, endpoint string, out chan<- Event) (connected bool, err error) {
	header := http.Header{}
	if s.cfg.Token != "" {
		header.Set("token", s.cfg.Token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dialing %s: status %d: %w", endpoint, resp.StatusCode, err)
		}
		return false, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	s.logger.Info("socket connected", "endpoint", endpoint)

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(ctx, conn, done)

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return true, err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, errors.New("closed by server")
			}
			return true, err
		}
		// Any frame proves the connection is alive.
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			conn.Close()
			return true, err
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			s.logger.Debug("skipping frame", "error", err)
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			conn.Close()
			return true, ctx.Err()
		}
	}
}

// keepalive pings the server and closes conn when ctx ends so a blocked read
// returns.
func (s *Subscriber) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("ping failed", "error", err)
				conn.Close()
				return
			}
		}
	}
}
