// ABOUTME: Prints coordinator updates as a scrolling chat transcript
// ABOUTME: New history lines, unseen badges and presence changes go to stdout

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/quickchat/internal/chat"
	"github.com/2389/quickchat/internal/session"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	gray   = color.New(color.FgHiBlack)
	red    = color.New(color.FgRed)
)

// renderer serialises all terminal output.
type renderer struct {
	mu      sync.Mutex
	w       io.Writer
	coord   *session.Coordinator
	peer    string              // conversation currently printed
	printed map[string]struct{} // message IDs already printed for peer
}

func newRenderer(w io.Writer, coord *session.Coordinator) *renderer {
	return &renderer{w: w, coord: coord, printed: make(map[string]struct{})}
}

func (r *renderer) run(ctx context.Context, updates <-chan session.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			r.apply(u)
		}
	}
}

func (r *renderer) apply(u session.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch u.Kind {
	case session.UpdateSelection:
		r.selectionLocked(u)
	case session.UpdateMessages:
		if u.ScrollToLatest && u.Peer == r.peer {
			r.flushLocked()
		}
	case session.UpdateUnseen:
		if n := r.coord.Unseen(u.Peer); n > 0 {
			yellow.Fprintf(r.w, "\r● %s (%d unseen)\n", r.nameLocked(u.Peer), n)
		}
	case session.UpdatePresence:
		if u.Peer == "" {
			return
		}
		if r.coord.IsOnline(u.Peer) {
			gray.Fprintf(r.w, "\r%s is online\n", r.nameLocked(u.Peer))
		} else {
			gray.Fprintf(r.w, "\r%s went offline\n", r.nameLocked(u.Peer))
		}
	}
}

func (r *renderer) selectionLocked(u session.Update) {
	selected := r.coord.Selected()
	switch r.coord.State() {
	case session.StateLoading:
		if selected != r.peer {
			r.peer = selected
			r.printed = make(map[string]struct{})
			gray.Fprintf(r.w, "\rloading conversation with %s...\n", r.nameLocked(selected))
		}
	case session.StateActive:
		if u.ScrollToLatest {
			if selected != r.peer {
				r.peer = selected
				r.printed = make(map[string]struct{})
			}
			status := "offline"
			if r.coord.IsOnline(selected) {
				status = "online"
			}
			cyan.Fprintf(r.w, "\r── %s (%s) ──\n", r.nameLocked(selected), status)
			r.flushLocked()
		}
	case session.StateNoConversation:
		if selected == "" && r.peer != "" {
			gray.Fprintf(r.w, "\rconversation closed\n")
			r.peer = ""
			r.printed = make(map[string]struct{})
		}
	}
}

// flushLocked prints every visible message not printed yet.
func (r *renderer) flushLocked() {
	for _, m := range r.coord.Messages() {
		if _, ok := r.printed[m.ID]; ok {
			continue
		}
		r.printed[m.ID] = struct{}{}
		fmt.Fprintf(r.w, "\r%s\n", r.formatLocked(m))
	}
}

func (r *renderer) formatLocked(m chat.Message) string {
	self := r.coord.Self()
	who := r.nameLocked(m.SenderID)
	if m.SenderID == self.ID {
		who = green.Sprint("you")
	} else {
		who = cyan.Sprint(who)
	}

	body := m.Text
	if m.IsImage() {
		body = describeImage(m.Image)
	}
	return fmt.Sprintf("%s %s: %s", gray.Sprintf("[%s]", chat.FormatMessageTime(m.CreatedAt)), who, body)
}

// describeImage renders an image attachment as a one-line placeholder.
func describeImage(uri string) string {
	mime, data, err := chat.ParseDataURI(uri)
	if err != nil {
		return "[image]"
	}
	return fmt.Sprintf("[image %s, %s]", mime, humanBytes(len(data)))
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func (r *renderer) nameLocked(id string) string {
	if u, ok := r.coord.User(id); ok && u.FullName != "" {
		return u.FullName
	}
	if self := r.coord.Self(); self.ID == id && self.FullName != "" {
		return self.FullName
	}
	return id
}

func (r *renderer) welcome(me chat.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cyan.Fprintf(r.w, "Logged in as %s. Type /help for commands, /quit to exit.\n", me.FullName)
	if counts := r.coord.UnseenCounts(); len(counts) > 0 {
		for id, n := range counts {
			yellow.Fprintf(r.w, "● %s (%d unseen)\n", r.nameLocked(id), n)
		}
	}
}

func (r *renderer) prompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	label := "> "
	if r.peer != "" {
		label = r.nameLocked(r.peer) + "> "
	}
	green.Fprint(r.w, label)
}

func (r *renderer) users(users []chat.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(users) == 0 {
		gray.Fprintln(r.w, "no users")
		return
	}
	for _, u := range users {
		dot := gray.Sprint("○")
		if r.coord.IsOnline(u.ID) {
			dot = green.Sprint("●")
		}
		line := fmt.Sprintf("%s %s %s", dot, u.FullName, gray.Sprintf("(%s)", u.ID))
		if n := r.coord.Unseen(u.ID); n > 0 {
			line += yellow.Sprintf(" %d unseen", n)
		}
		fmt.Fprintln(r.w, line)
	}
}

func (r *renderer) online(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(ids) == 0 {
		gray.Fprintln(r.w, "nobody is online")
		return
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, r.nameLocked(id))
	}
	green.Fprintf(r.w, "online: %s\n", strings.Join(names, ", "))
}

func (r *renderer) help() {
	r.mu.Lock()
	defer r.mu.Unlock()
	yellow.Fprintln(r.w, "Commands:")
	fmt.Fprintln(r.w, "  /users [query]                   List users, optionally filtered by name")
	fmt.Fprintln(r.w, "  /use <id|name>                   Open a conversation")
	fmt.Fprintln(r.w, "  /close                           Close the conversation")
	fmt.Fprintln(r.w, "  /img <path>                      Send an image")
	fmt.Fprintln(r.w, "  /online                          Show who is online")
	fmt.Fprintln(r.w, `  /profile name="" bio="" pic=<p>  Update your profile`)
	fmt.Fprintln(r.w, "  /refresh                         Reload the user list")
	fmt.Fprintln(r.w, "  /quit                            Exit")
	fmt.Fprintln(r.w, "Anything else is sent to the open conversation.")
}

func (r *renderer) infof(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	green.Fprintf(r.w, "\r"+format+"\n", args...)
}

func (r *renderer) errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	red.Fprintf(r.w, "\r"+format+"\n", args...)
}
