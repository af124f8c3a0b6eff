package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/kv"
	"github.com/Gauravprp/chatsy/internal/prompt"
)

// Durable storage keys.
const (
	KeyUsername = "chat_username"
	KeySaveChat = "save_chat"
)

// Identity is who the user is in every room and whether that survives the session.
type Identity struct {
	Username       string
	SavePreference bool
}

// Store resolves and persists the identity through a kv.Store, falling back to
// interactive prompts for anything missing.
type Store struct {
	kv     kv.Store
	prompt prompt.Prompter
	log    *zerolog.Logger
}

// NewStore creates an identity store.
func NewStore(st kv.Store, p prompt.Prompter, logger *zerolog.Logger) *Store {
	return &Store{
		kv:     st,
		prompt: p,
		log:    logger,
	}
}

// Resolve returns the full identity, asking for the username before the save preference.
func (s *Store) Resolve(ctx context.Context) (Identity, error) {
	name, err := s.ResolveUsername(ctx)
	if err != nil {
		return Identity{}, err
	}
	save, err := s.ResolveSavePreference(ctx)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Username: name, SavePreference: save}, nil
}

// ResolveUsername returns the stored username or prompts until a non-empty one is given.
// It only fails when ctx is done or the prompt itself is broken.
func (s *Store) ResolveUsername(ctx context.Context) (string, error) {
	if name, ok := s.read(ctx, KeyUsername); ok && strings.TrimSpace(name) != "" {
		return name, nil
	}

	for attempt := 1; ; attempt++ {
		answer, err := s.prompt.Text(ctx, prompt.TextPrompt{
			Title:       "Enter your name",
			Placeholder: "e.g. Gaurav",
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err != nil && !errors.Is(err, prompt.ErrCancelled) {
			return "", err
		}

		name := strings.TrimSpace(answer)
		if err != nil || name == "" {
			idErr := &core.IdentityError{Field: "name", Err: err}
			s.log.Debug().Err(idErr).Int("attempt", attempt).Msg("username prompt rejected")
			continue
		}

		s.write(ctx, KeyUsername, name)
		s.log.Info().Str("username", name).Msg("username saved")
		return name, nil
	}
}

// ResolveSavePreference returns the stored preference or asks once.
// A dismissed question counts as "discard".
func (s *Store) ResolveSavePreference(ctx context.Context) (bool, error) {
	if raw, ok := s.read(ctx, KeySaveChat); ok {
		if save, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return save, nil
		}
		s.log.Warn().Str("value", raw).Msg("ignoring unreadable save preference")
	}

	save, err := s.prompt.Confirm(ctx, prompt.ConfirmPrompt{
		Title:       "Save chat messages?",
		Text:        "Do you want to save chat after leaving tab?",
		ConfirmText: "Save",
		DenyText:    "Trash",
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		if !errors.Is(err, prompt.ErrCancelled) {
			return false, err
		}
		save = false
	}

	s.write(ctx, KeySaveChat, strconv.FormatBool(save))
	return save, nil
}

// SetSavePreference persists an explicit change of preference.
func (s *Store) SetSavePreference(ctx context.Context, save bool) error {
	return s.kv.Set(ctx, KeySaveChat, strconv.FormatBool(save))
}

// Purge forgets the identity entirely.
func (s *Store) Purge(ctx context.Context) error {
	var errs []error
	if err := s.kv.Remove(ctx, KeyUsername); err != nil {
		errs = append(errs, err)
	}
	if err := s.kv.Remove(ctx, KeySaveChat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to read identity key, treating as absent")
		return "", false
	}
	return v, ok
}

func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to persist identity key")
	}
}
