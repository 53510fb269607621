// ABOUTME: Interactive chat session: wires transport, coordinator and renderer
// ABOUTME: Reads slash commands and plain messages from stdin

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/2389/quickchat/internal/auth"
	"github.com/2389/quickchat/internal/chat"
	"github.com/2389/quickchat/internal/session"
	"github.com/2389/quickchat/internal/transport"
)

func cmdChat(a *app) error {
	token, err := loadSession(a)
	if err != nil {
		return err
	}
	a.api.SetToken(token)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	me, err := a.api.CheckAuth(ctx)
	if err != nil {
		if errors.Is(err, chat.ErrUnauthorized) {
			return fmt.Errorf("session rejected by server: run 'quickchat login' again: %w", err)
		}
		return err
	}
	if claims, err := auth.ParseClaims(token); err == nil && claims.UserID != me.ID {
		a.logger.Warn("token user differs from server user", "token_user", claims.UserID, "user", me.ID)
	}

	coord := session.New(a.api, session.Config{
		Self:              me,
		DedupeTTL:         a.cfg.Chat.DedupeTTL,
		DedupeSize:        a.cfg.Chat.DedupeSize,
		RefreshOnPresence: a.cfg.Chat.RefreshOnPresenceEnabled(),
	}, a.logger)
	defer coord.Close()

	out := newRenderer(os.Stdout, coord)
	if err := coord.RefreshUsers(ctx); err != nil {
		out.errorf("could not load users: %v", err)
	}

	sub := transport.NewSubscriber(transport.Config{
		URL:          a.cfg.Server.SocketURL,
		UserID:       me.ID,
		Token:        token,
		ReconnectMin: a.cfg.Transport.ReconnectMin,
		ReconnectMax: a.cfg.Transport.ReconnectMax,
	}, a.logger)

	events := make(chan transport.Event, 64)
	updates, _ := coord.Subscribe(ctx)
	lines := readLines(os.Stdin)

	out.welcome(me)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		return ignoreCanceled(sub.Run(gctx, events))
	})
	g.Go(func() error {
		return ignoreCanceled(coord.Run(gctx, events))
	})
	g.Go(func() error {
		out.run(gctx, updates)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		r := &repl{coord: coord, out: out, maxImageBytes: a.cfg.Chat.MaxImageBytes}
		return ignoreCanceled(r.loop(gctx, lines))
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readLines feeds stdin lines into a channel so the REPL can also watch ctx.
// The channel closes on EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1024*1024) // 1MB max input
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

var errQuit = errors.New("quit")

type repl struct {
	coord         *session.Coordinator
	out           *renderer
	maxImageBytes int
}

func (r *repl) loop(ctx context.Context, lines <-chan string) error {
	for {
		r.out.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := r.handle(ctx, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				r.out.errorf("%s", describeError(err))
			}
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		_, err := r.coord.SendOutgoing(ctx, chat.OutgoingMessage{Text: line})
		return err
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/users":
		r.out.users(r.coord.FilterUsers(arg))
	case "/use":
		peer, err := resolvePeer(r.coord.Users(), arg)
		if err != nil {
			return err
		}
		// Loads run in the background so the prompt stays responsive; the
		// renderer prints the history once it arrives.
		go func() {
			if err := r.coord.SelectConversation(ctx, peer.ID); err != nil && ctx.Err() == nil {
				r.out.errorf("loading conversation with %s failed: %v (try /use again)", peer.FullName, err)
			}
		}()
	case "/close":
		r.coord.DeselectConversation()
	case "/img":
		if arg == "" {
			return fmt.Errorf("usage: /img <path>")
		}
		uri, err := chat.ReadImageFile(arg, r.maxImageBytes)
		if err != nil {
			return err
		}
		_, err = r.coord.SendOutgoing(ctx, chat.OutgoingMessage{Image: uri})
		return err
	case "/online":
		r.out.online(r.coord.Online())
	case "/profile":
		update, err := parseProfileArgs(arg, r.maxImageBytes)
		if err != nil {
			return err
		}
		u, err := r.coord.UpdateProfile(ctx, update)
		if err != nil {
			return err
		}
		r.out.infof("profile updated: %s", u.FullName)
	case "/refresh":
		return r.coord.RefreshUsers(ctx)
	case "/help":
		r.out.help()
	case "/quit", "/exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return nil
}

// resolvePeer finds a roster entry by exact ID, then by unique name match.
func resolvePeer(users []chat.User, query string) (chat.User, error) {
	if query == "" {
		return chat.User{}, fmt.Errorf("usage: /use <id|name>")
	}
	for _, u := range users {
		if u.ID == query {
			return u, nil
		}
	}
	for _, u := range users {
		if strings.EqualFold(u.FullName, query) {
			return u, nil
		}
	}

	matches := chat.FilterUsers(users, query)
	switch len(matches) {
	case 0:
		return chat.User{}, fmt.Errorf("no user matches %q", query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, u := range matches {
			names = append(names, u.FullName)
		}
		return chat.User{}, fmt.Errorf("%q matches %s", query, strings.Join(names, ", "))
	}
}

var profileArgPattern = regexp.MustCompile(`(\w+)=("[^"]*"|\S+)`)

// parseProfileArgs reads name=, bio= and pic= pairs. Values with spaces are
// double-quoted; pic is a path to an image file.
func parseProfileArgs(arg string, maxImageBytes int) (chat.ProfileUpdate, error) {
	var update chat.ProfileUpdate
	matches := profileArgPattern.FindAllStringSubmatch(arg, -1)
	if len(matches) == 0 {
		return update, fmt.Errorf(`usage: /profile name="Full Name" bio="About me" pic=<path>`)
	}

	for _, m := range matches {
		value := strings.Trim(m[2], `"`)
		switch m[1] {
		case "name":
			update.FullName = value
		case "bio":
			update.Bio = value
		case "pic":
			uri, err := chat.ReadImageFile(value, maxImageBytes)
			if err != nil {
				return update, err
			}
			update.ProfilePic = uri
		default:
			return update, fmt.Errorf("unknown profile field %q", m[1])
		}
	}
	return update, nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, chat.ErrNoConversation):
		return "no conversation selected: pick one with /use <name>"
	case errors.Is(err, chat.ErrUnauthorized):
		return fmt.Sprintf("%v (run 'quickchat login' again)", err)
	default:
		return err.Error()
	}
}
