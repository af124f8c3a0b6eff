package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/metrics"
)

// Warm-up defaults: a send slower than DefaultWarmupDelay is treated as a backend
// cold start and counted in DefaultWarmupTick steps.
const (
	DefaultWarmupDelay = 2 * time.Second
	DefaultWarmupTick  = time.Second
)

// Appender posts one message to a room.
type Appender interface {
	Append(ctx context.Context, room core.Room, name, text string) (core.Message, error)
}

// Refresher re-fetches the room right away.
type Refresher interface {
	RefreshNow(ctx context.Context) bool
}

// Phase is where a send attempt currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseWarmingUp
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseWarmingUp:
		return "warming_up"
	default:
		return "unknown"
	}
}

// Status is the user-visible state of the sender.
type Status struct {
	Phase         Phase
	WarmingUp     bool
	WarmupSeconds int
}

// Outcome is the result of one Send call.
type Outcome int

const (
	// OutcomeSkipped means nothing was sent: empty text or another send in flight.
	OutcomeSkipped Outcome = iota
	OutcomeSent
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SenderConfig tunes a Sender. Zero values pick the defaults.
type SenderConfig struct {
	WarmupDelay time.Duration
	WarmupTick  time.Duration
	Clock       clock.Clock
	Metrics     *metrics.Client
	// OnStatus observes every status change, in order.
	OnStatus func(Status)
}

// Sender submits messages one at a time and reports slow backends.
//
// A send that has not finished after the warm-up delay flips the status to
// WarmingUp and counts elapsed seconds. Whatever the outcome, both timers are
// stopped and the status is back to Idle before Send returns.
type Sender struct {
	log       Appender
	refresher Refresher
	room      core.Room
	name      string

	clock       clock.Clock
	warmupDelay time.Duration
	warmupTick  time.Duration
	metrics     *metrics.Client
	onStatus    func(Status)
	logger      *zerolog.Logger

	inFlight atomic.Bool

	mu     sync.Mutex
	status Status
	draft  string

	// notifyMu orders status updates with their OnStatus notifications.
	notifyMu sync.Mutex
}

// NewSender creates a sender posting as name into room. refresher may be nil.
func NewSender(log Appender, refresher Refresher, room core.Room, name string, cfg SenderConfig, logger *zerolog.Logger) *Sender {
	if cfg.WarmupDelay <= 0 {
		cfg.WarmupDelay = DefaultWarmupDelay
	}
	if cfg.WarmupTick <= 0 {
		cfg.WarmupTick = DefaultWarmupTick
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewClient(nil)
	}
	return &Sender{
		log:         log,
		refresher:   refresher,
		room:        room,
		name:        name,
		clock:       cfg.Clock,
		warmupDelay: cfg.WarmupDelay,
		warmupTick:  cfg.WarmupTick,
		metrics:     cfg.Metrics,
		onStatus:    cfg.OnStatus,
		logger:      logger,
	}
}

// Status returns the current send status.
func (s *Sender) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetDraft replaces the compose text.
func (s *Sender) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Draft returns the compose text.
func (s *Sender) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Submit sends the draft. The draft is cleared only after a successful send,
// and only if it was not edited while the send was in flight.
func (s *Sender) Submit(ctx context.Context) Outcome {
	draft := s.Draft()
	return s.send(ctx, draft, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.draft == draft {
			s.draft = ""
		}
	})
}

// Send posts text (trimmed). Failures, including a panicking Append, are logged
// and reported as OutcomeFailed, never returned as errors.
func (s *Sender) Send(ctx context.Context, text string) Outcome {
	return s.send(ctx, text, nil)
}

func (s *Sender) send(ctx context.Context, text string, onSent func()) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return OutcomeSkipped
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("send already in flight, ignoring")
		return OutcomeSkipped
	}

	err := s.attempt(ctx, text)
	if err != nil {
		s.metrics.Sends.WithLabelValues(OutcomeFailed.String()).Inc()
		s.logger.Error().Err(err).Str("room", s.room.String()).Msg("send failed")
		return OutcomeFailed
	}

	s.metrics.Sends.WithLabelValues(OutcomeSent.String()).Inc()
	if onSent != nil {
		onSent()
	}
	if s.refresher != nil {
		s.refresher.RefreshNow(ctx)
	}
	return OutcomeSent
}

// attempt runs the append with the warm-up watcher armed. A panicking Append
// is reported as an error after the same cleanup as any other failure.
func (s *Sender) attempt(ctx context.Context, text string) (err error) {
	defer s.inFlight.Store(false)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("append panicked: %v", r)
		}
	}()

	s.setStatus(func(st *Status) { *st = Status{Phase: PhaseSending} })

	done := make(chan struct{})
	delay := s.clock.Timer(s.warmupDelay)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchWarmup(delay, done)
	}()

	defer func() {
		close(done)
		wg.Wait()
		s.setStatus(func(st *Status) { *st = Status{} })
	}()

	start := s.clock.Now()
	_, err = s.log.Append(ctx, s.room, s.name, text)
	s.logger.Debug().Dur("took", s.clock.Since(start)).Bool("ok", err == nil).Msg("append finished")
	return err
}

func (s *Sender) watchWarmup(delay *clock.Timer, done <-chan struct{}) {
	defer delay.Stop()

	select {
	case <-done:
		return
	case <-delay.C:
	}

	ticker := s.clock.Ticker(s.warmupTick)
	defer ticker.Stop()

	s.metrics.Warmups.Inc()
	s.logger.Info().Str("room", s.room.String()).Msg("backend is slow to answer, probably starting up")
	s.setStatus(func(st *Status) {
		st.Phase = PhaseWarmingUp
		st.WarmingUp = true
		st.WarmupSeconds = 0
	})

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.setStatus(func(st *Status) { st.WarmupSeconds++ })
		}
	}
}

func (s *Sender) setStatus(update func(*Status)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	update(&s.status)
	st := s.status
	s.mu.Unlock()

	if s.onStatus != nil {
		s.onStatus(st)
	}
}
