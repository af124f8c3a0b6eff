package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/peterh/liner"
)

// Terminal implements Prompter on a line-editing terminal. It also serves the
// compose line of the chat client so that prompts and input share one liner state.
//
// liner reads are not interruptible; ctx is checked before each read only.
type Terminal struct {
	mu   sync.Mutex
	line *liner.State
	out  io.Writer
}

// NewTerminal takes over the terminal. Call Close to restore it.
func NewTerminal(out io.Writer) *Terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &Terminal{line: line, out: out}
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	return t.line.Close()
}

// Text prints the title and reads one line. Ctrl-C dismisses it with ErrCancelled.
func (t *Terminal) Text(ctx context.Context, p TextPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	label := p.Title
	if p.Placeholder != "" {
		label = fmt.Sprintf("%s (%s)", p.Title, p.Placeholder)
	}
	answer, err := t.line.Prompt(label + ": ")
	if err != nil {
		return "", mapLinerErr(err)
	}
	return answer, nil
}

// Confirm asks until the answer matches the confirm or deny option. An empty
// answer or Ctrl-C dismisses it with ErrCancelled.
func (t *Terminal) Confirm(ctx context.Context, p ConfirmPrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	confirm, deny := orDefault(p.ConfirmText, "Yes"), orDefault(p.DenyText, "No")
	if p.Text != "" {
		fmt.Fprintln(t.out, p.Text)
	}
	question := fmt.Sprintf("%s [%s/%s]: ", p.Title, confirm, deny)

	for {
		answer, err := t.line.Prompt(question)
		if err != nil {
			return false, mapLinerErr(err)
		}
		switch choice := strings.ToLower(strings.TrimSpace(answer)); {
		case choice == "":
			return false, ErrCancelled
		case matchesOption(choice, confirm), choice == "y", choice == "yes":
			return true, nil
		case matchesOption(choice, deny), choice == "n", choice == "no":
			return false, nil
		}
		fmt.Fprintf(t.out, "Please answer %q or %q.\n", confirm, deny)
	}
}

// ReadLine reads one compose line and records it in the history.
func (t *Terminal) ReadLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	text, err := t.line.Prompt(label)
	if err != nil {
		return "", mapLinerErr(err)
	}
	if strings.TrimSpace(text) != "" {
		t.line.AppendHistory(text)
	}
	return text, nil
}

func mapLinerErr(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return ErrCancelled
	}
	return err
}

// matchesOption accepts the full option word or its first letter.
func matchesOption(choice, option string) bool {
	option = strings.ToLower(option)
	return choice == option || (len(option) > 0 && choice == option[:1])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
