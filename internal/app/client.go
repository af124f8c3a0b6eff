package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Gauravprp/chatsy/internal/chat"
	"github.com/Gauravprp/chatsy/internal/config"
	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/identity"
	"github.com/Gauravprp/chatsy/internal/kv"
	"github.com/Gauravprp/chatsy/internal/metrics"
	"github.com/Gauravprp/chatsy/internal/prompt"
	"github.com/Gauravprp/chatsy/internal/push"
	"github.com/Gauravprp/chatsy/internal/roomlog"
	"github.com/Gauravprp/chatsy/internal/view"
)

// Console is the interactive terminal: modal prompts plus the compose line.
type Console interface {
	prompt.Prompter
	ReadLine(ctx context.Context, label string) (string, error)
}

// ClientDeps are the client's injectable collaborators. Zero values are
// filled from the configuration.
type ClientDeps struct {
	Console    Console
	Out        io.Writer
	KV         kv.Store
	HTTPClient *stdhttp.Client
	Clock      clock.Clock
}

// Client runs one interactive chat session.
type Client struct {
	cfg  config.Config
	room core.Room
	deps ClientDeps
	log  *zerolog.Logger
}

// NewClient prepares a client for room.
func NewClient(cfg config.Config, room core.Room, deps ClientDeps, logger *zerolog.Logger) *Client {
	room = core.NormalizeRoom(room.String())
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Client{cfg: cfg, room: room, deps: deps, log: logger}
}

// Run resolves the identity, joins the room and drives the compose loop until the
// user quits or ctx ends. The end-of-session hook runs on every exit path once the
// session has started.
func (c *Client) Run(ctx context.Context) (err error) {
	store := c.deps.KV
	if store == nil {
		store, err = OpenKV(c.cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ident := identity.NewStore(store, c.deps.Console, c.log)
	id, err := ident.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}

	opts := []roomlog.Option{roomlog.WithTimeout(c.cfg.Client.RequestTimeout)}
	if c.deps.HTTPClient != nil {
		opts = append(opts, roomlog.WithHTTPClient(c.deps.HTTPClient))
	}
	rl, err := roomlog.New(c.cfg.Client.APIURL, c.log, opts...)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewClient(reg)
	screen := view.New(c.deps.Out, id.Username)

	session := chat.NewSession(chat.SessionConfig{
		Room:           c.room,
		Username:       id.Username,
		SavePreference: id.SavePreference,
		Log:            rl,
		Identity:       ident,
		Prompter:       c.deps.Console,
		Sync: chat.SyncConfig{
			Interval: c.cfg.Client.PollInterval,
			Clock:    c.deps.Clock,
			Metrics:  m,
		},
		Send: chat.SenderConfig{
			WarmupDelay: c.cfg.Client.WarmupDelay,
			WarmupTick:  c.cfg.Client.WarmupTick,
			Clock:       c.deps.Clock,
			Metrics:     m,
			OnStatus:    screen.Status,
		},
	}, c.log)

	screen.Header(c.room)
	if err := session.Start(ctx, screen.Messages); err != nil {
		return err
	}
	defer func() {
		if endErr := session.End(context.WithoutCancel(ctx)); endErr != nil {
			err = errors.Join(err, fmt.Errorf("end session: %w", endErr))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if c.cfg.Client.Push {
		w, err := push.NewWatcher(c.cfg.Client.APIURL, c.room, session.Synchronizer(), c.log, push.WithClock(c.deps.Clock))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(runCtx) })
	}

	if addr := c.cfg.Client.MetricsAddr; addr != "" {
		srv := &stdhttp.Server{Addr: addr, Handler: metrics.Handler(reg)}
		g.Go(func() error {
			c.log.Info().Str("addr", addr).Msg("serving client metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			return srv.Close()
		})
	}

	g.Go(func() error {
		defer cancel()
		return c.compose(runCtx, session, screen)
	})

	return g.Wait()
}

// compose reads lines until /quit, end of input or ctx ends.
func (c *Client) compose(ctx context.Context, session *chat.Session, screen *view.Renderer) error {
	for {
		line, err := c.deps.Console.ReadLine(ctx, "> ")
		switch {
		case err == nil:
		case errors.Is(err, prompt.ErrCancelled), errors.Is(err, io.EOF), ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("read input: %w", err)
		}

		cmd := strings.TrimSpace(line)
		switch {
		case cmd == "":
		case cmd == "/quit" || cmd == "/exit":
			return nil
		case cmd == "/clear":
			cleared, err := session.Clear(ctx)
			if err != nil {
				screen.Error("Could not clear the room: " + err.Error())
			} else if cleared {
				screen.Info("Room cleared.")
			}
		case cmd == "/save on" || cmd == "/save off":
			save := cmd == "/save on"
			if err := session.SetSavePreference(ctx, save); err != nil {
				screen.Error("Could not update the save preference: " + err.Error())
			} else if save {
				screen.Info("Your name will be remembered.")
			} else {
				screen.Info("Your name will be forgotten when you leave.")
			}
		case strings.HasPrefix(cmd, "/save"):
			screen.Error("Usage: /save on|off")
		case cmd == "/retry":
			c.submit(ctx, session, screen)
		default:
			session.Sender().SetDraft(line)
			c.submit(ctx, session, screen)
		}
	}
}

func (c *Client) submit(ctx context.Context, session *chat.Session, screen *view.Renderer) {
	if session.Submit(ctx) == chat.OutcomeFailed {
		screen.Error("Message not sent. Type /retry to send it again.")
	}
}
