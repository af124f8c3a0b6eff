// Package prompt abstracts blocking, modal user input.
package prompt

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned when the user dismisses a prompt without answering.
var ErrCancelled = errors.New("prompt cancelled")

// TextPrompt asks for a line of text.
type TextPrompt struct {
	Title       string
	Placeholder string
}

// ConfirmPrompt asks a yes/no question.
type ConfirmPrompt struct {
	Title       string
	Text        string
	ConfirmText string
	DenyText    string
}

// Prompter blocks the calling goroutine until the user answers.
type Prompter interface {
	// Text returns the entered text or ErrCancelled.
	Text(ctx context.Context, p TextPrompt) (string, error)

	// Confirm returns true when the user picks the confirm option.
	Confirm(ctx context.Context, p ConfirmPrompt) (bool, error)
}

// Answer is one scripted reply.
type Answer struct {
	Text    string
	Confirm bool
	Err     error
}

// Scripted replays canned answers in order. It records every prompt it was shown.
// Once the script runs out it returns ErrScriptExhausted.
type Scripted struct {
	mu       sync.Mutex
	answers  []Answer
	Texts    []TextPrompt
	Confirms []ConfirmPrompt
}

// ErrScriptExhausted signals a test asked more questions than it scripted.
var ErrScriptExhausted = errors.New("prompt script exhausted")

// NewScripted returns a Prompter answering with answers in order.
func NewScripted(answers ...Answer) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) next() (Answer, bool) {
	if len(s.answers) == 0 {
		return Answer{}, false
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, true
}

// Text records p and replays the next scripted answer.
func (s *Scripted) Text(ctx context.Context, p TextPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Texts = append(s.Texts, p)
	a, ok := s.next()
	if !ok {
		return "", ErrScriptExhausted
	}
	return a.Text, a.Err
}

// Confirm records p and replays the next scripted answer.
func (s *Scripted) Confirm(ctx context.Context, p ConfirmPrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Confirms = append(s.Confirms, p)
	a, ok := s.next()
	if !ok {
		return false, ErrScriptExhausted
	}
	return a.Confirm, a.Err
}

// Asked reports how many prompts of each kind were shown.
func (s *Scripted) Asked() (texts, confirms int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Texts), len(s.Confirms)
}
