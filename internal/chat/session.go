package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/prompt"
)

// MessageLog is the remote log as the session uses it.
type MessageLog interface {
	Lister
	Appender
	Clear(ctx context.Context, room core.Room) error
}

// IdentityStore persists preference changes and forgets the identity.
type IdentityStore interface {
	Purger
	SetSavePreference(ctx context.Context, save bool) error
}

// SessionConfig wires a Session.
type SessionConfig struct {
	Room           core.Room
	Username       string
	SavePreference bool

	Log      MessageLog
	Identity IdentityStore
	Prompter prompt.Prompter

	Sync SyncConfig
	Send SenderConfig
}

// Session is one user's participation in one room.
type Session struct {
	room     core.Room
	username string
	log      MessageLog
	identity IdentityStore
	prompter prompt.Prompter
	logger   *zerolog.Logger

	syncer *Synchronizer
	sender *Sender
	guard  *Guard

	mu   sync.Mutex
	save bool
}

// NewSession builds a session; nothing runs until Start.
func NewSession(cfg SessionConfig, logger *zerolog.Logger) *Session {
	room := core.NormalizeRoom(cfg.Room.String())
	l :=logger.With().Str("room", room.String()).Logger()

	syncer := NewSynchronizer(cfg.Log, cfg.Sync, &l)
	return &Session{
		room:     room,
		username: cfg.Username,
		log:      cfg.Log,
		identity: cfg.Identity,
		prompter: cfg.Prompter,
		logger:   &l,
		syncer:   syncer,
		sender:   NewSender(cfg.Log, syncer, room, cfg.Username, cfg.Send, &l),
		guard:    NewGuard(cfg.Identity, &l),
		save:     cfg.SavePreference,
	}
}

// Room returns the session's room.
func (s *Session) Room() core.Room { return s.room }

// Username returns the name messages are sent under.
func (s *Session) Username() string { return s.username }

// Synchronizer exposes the poll loop, e.g. for push-triggered refreshes.
func (s *Session) Synchronizer() *Synchronizer { return s.syncer }

// Sender exposes the send coordinator.
func (s *Session) Sender() *Sender { return s.sender }

// SavePreference returns the preference the guard currently acts on.
func (s *Session) SavePreference() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save
}

// Start installs the end-of-session guard and begins polling.
func (s *Session) Start(ctx context.Context, onUpdate func([]core.Message)) error {
	s.guard.Install(s.SavePreference())
	if err := s.syncer.Start(ctx, s.room, onUpdate); err != nil {
		s.guard.Uninstall()
		return err
	}
	s.logger.Info().Str("user", s.username).Msg("session started")
	return nil
}

// Submit sends the compose draft.
func (s *Session) Submit(ctx context.Context) Outcome {
	return s.sender.Submit(ctx)
}

// Send posts text directly.
func (s *Session) Send(ctx context.Context, text string) Outcome {
	return s.sender.Send(ctx, text)
}

// Clear asks for confirmation and deletes every message in the room.
// On success the local view is emptied at once; on failure it is left as is.
// It reports whether the room was cleared.
func (s *Session) Clear(ctx context.Context) (bool, error) {
	ok, err := s.prompter.Confirm(ctx, prompt.ConfirmPrompt{
		Title:       "Clear Chat?",
		Text:        "This will delete all messages from this room.",
		ConfirmText: "Yes, clear it!",
		DenyText:    "Cancel",
	})
	if err != nil && !errors.Is(err, prompt.ErrCancelled) {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := s.log.Clear(ctx, s.room); err != nil {
		s.logger.Error().Err(err).Msg("clear failed, keeping local messages")
		return false, err
	}
	s.syncer.Reset()
	s.logger.Info().Msg("room cleared")
	return true, nil
}

// SetSavePreference persists a new preference and re-arms the guard with it.
func (s *Session) SetSavePreference(ctx context.Context, save bool) error {
	if err := s.identity.SetSavePreference(ctx, save); err != nil {
		return err
	}
	s.mu.Lock()
	s.save = save
	s.mu.Unlock()
	if s.guard.Installed() {
		s.guard.Install(save)
	}
	return nil
}

// End is the normal end of the session: polling stops and the identity is purged
// unless the user chose to keep it.
func (s *Session) End(ctx context.Context) error {
	s.syncer.Stop()
	_, err := s.guard.End(ctx)
	return err
}

// Close tears the session down early without running the end-of-session hook.
func (s *Session) Close() {
	s.syncer.Stop()
	s.guard.Uninstall()
}
