// Package view renders room snapshots and send status to a terminal.
package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Gauravprp/chatsy/internal/chat"
	"github.com/Gauravprp/chatsy/internal/core"
)

var (
	brandPrimary = lipgloss.Color("#22C55E") // Green
	brandAccent  = lipgloss.Color("#86EFAC") // Light green
	brandWarning = lipgloss.Color("#FACC15") // Yellow
	textMuted    = lipgloss.Color("#15803D") // Dark green

	titleStyle = lipgloss.NewStyle().
			Foreground(brandAccent).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(brandAccent).
			Bold(true)

	ownNameStyle = lipgloss.NewStyle().
			Foreground(brandPrimary).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(textMuted)

	warningStyle = lipgloss.NewStyle().
			Foreground(brandWarning)
)

// TimeFormat is how message times are shown.
const TimeFormat = "15:04:05"

// Renderer writes snapshots incrementally: when a snapshot extends the previous
// one only the new messages are printed, otherwise the whole room is redrawn.
type Renderer struct {
	out      io.Writer
	username string

	mu     sync.Mutex
	shown  []core.MessageID
	drawn  bool
	status chat.Status
}

// New creates a renderer. Messages by username are highlighted.
func New(out io.Writer, username string) *Renderer {
	return &Renderer{out: out, username: username}
}

// Header prints the room banner.
func (r *Renderer) Header(room core.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, titleStyle.Render("Terminal Chat - Room: "+room.String()))
	fmt.Fprintln(r.out, dimStyle.Render("Commands: /clear  /save on|off  /quit"))
}

// Messages renders a snapshot.
func (r *Renderer) Messages(msgs []core.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]core.MessageID, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}

	if r.drawn && isPrefix(r.shown, ids) {
		for _, m := range msgs[len(r.shown):] {
			fmt.Fprintln(r.out, FormatMessage(m, m.Name == r.username))
		}
		r.shown = ids
		return
	}

	if r.drawn {
		fmt.Fprintln(r.out, dimStyle.Render(strings.Repeat("-", 40)))
	}
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, dimStyle.Render("No messages yet..."))
	}
	for _, m := range msgs {
		fmt.Fprintln(r.out, FormatMessage(m, m.Name == r.username))
	}
	r.shown = ids
	r.drawn = true
}

// Status prints a line when the send status changes in a user-visible way.
func (r *Renderer) Status(st chat.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.status
	r.status = st
	if st == prev {
		return
	}
	if line := FormatStatus(st); line != "" {
		fmt.Fprintln(r.out, line)
	}
}

// Error prints a one-line failure notice.
func (r *Renderer) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, warningStyle.Render(msg))
}

// Info prints a one-line notice.
func (r *Renderer) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, dimStyle.Render(msg))
}

// FormatMessage renders one message line.
func FormatMessage(m core.Message, own bool) string {
	style := nameStyle
	if own {
		style = ownNameStyle
	}
	var ts string
	if !m.Time.IsZero() {
		ts = dimStyle.Render(m.Time.Local().Format(TimeFormat)) + " "
	}
	return ts + style.Render(m.Name+":") + " " + m.Text
}

// FormatStatus renders the sender status, or "" when idle.
func FormatStatus(st chat.Status) string {
	switch {
	case st.WarmingUp:
		return warningStyle.Render(fmt.Sprintf("Server is starting up, please wait... (%ds)", st.WarmupSeconds))
	case st.Phase == chat.PhaseSending:
		return dimStyle.Render("Sending...")
	default:
		return ""
	}
}

func isPrefix(prefix, ids []core.MessageID) bool {
	if len(prefix) > len(ids) {
		return false
	}
	for i := range prefix {
		if prefix[i] != ids[i] {
			return false
		}
	}
	return true
}
