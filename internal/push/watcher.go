// Package push listens for room change hints from the backend and turns them into
// immediate refreshes. Polling stays authoritative; a hint only shortens the wait.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/proto"
)

// Backoff bounds between reconnect attempts.
const (
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = 30 * time.Second
)

// Refresher re-fetches the room right away.
type Refresher interface {
	RefreshNow(ctx context.Context) bool
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithClock replaces the clock used for backoff timers.
func WithClock(c clock.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// WithBackoff sets the reconnect backoff bounds.
func WithBackoff(lo, hi time.Duration) Option {
	return func(w *Watcher) {
		w.minBackoff = lo
		w.maxBackoff = hi
	}
}

// Watcher keeps a push subscription open for one room.
type Watcher struct {
	url       string
	room      core.Room
	refresher Refresher
	clock     clock.Clock
	log       *zerolog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewWatcher derives the push endpoint from the messages API URL
// (http://host/messages becomes ws://host/messages/ws?room=...).
func NewWatcher(apiURL string, room core.Room, r Refresher, logger *zerolog.Logger, opts ...Option) (*Watcher, error) {
	room = core.NormalizeRoom(room.String())
	wsURL, err := Endpoint(apiURL, room)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		url:        wsURL,
		room:       room,
		refresher:  r,
		clock:      clock.New(),
		log:        logger,
		minBackoff: DefaultMinBackoff,
		maxBackoff: DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.minBackoff <= 0 {
		w.minBackoff = DefaultMinBackoff
	}
	if w.maxBackoff < w.minBackoff {
		w.maxBackoff = w.minBackoff
	}
	return w, nil
}

// Endpoint returns the push URL for room.
func Endpoint(apiURL string, room core.Room) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := url.Values{}
	q.Set("room", room.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// URL returns the websocket endpoint the watcher dials.
func (w *Watcher) URL() string { return w.url }

// Run keeps the subscription alive until ctx is done. Broken connections are
// logged and retried with exponential backoff. It always returns nil once ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := w.minBackoff
	for {
		connected, err := w.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = w.minBackoff
		}
		w.log.Warn().Err(err).Str("room", w.room.String()).Dur("retry_in", backoff).Msg("push connection lost")

		timer := w.clock.Timer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, w.maxBackoff)
	}
}

// listen runs one connection. connected reports whether the dial succeeded.
func (w *Watcher) listen(ctx context.Context) (connected bool, err error) {
	conn, _, err := websocket.Dial(ctx, w.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial push: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	w.log.Debug().Str("url", w.url).Msg("push connected")

	// A hint may have been missed while disconnected.
	w.refresher.RefreshNow(ctx)

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return true, errors.New("push closed by server")
			}
			return true, err
		}

		switch outbound.Type {
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				return true, fmt.Errorf("push error: %w", core.NewCoreError(outbound.Error.Code, outbound.Error.Msg))
			}
			return true, errors.New("push error")
		case proto.OutboundTypeEvent:
			if outbound.Event != proto.EventChanged {
				continue
			}
			var data proto.EventRoomChanged
			if err := json.Unmarshal(outbound.Data, &data); err != nil {
				w.log.Debug().Err(err).Msg("ignoring malformed push event")
				continue
			}
			if core.NormalizeRoom(data.Room) != w.room {
				continue
			}
			w.log.Debug().Str("room", data.Room).Str("reason", data.Reason).Msg("push hint, refreshing")
			w.refresher.RefreshNow(ctx)
		}
	}
}
