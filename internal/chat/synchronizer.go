// Package chat keeps a local view of a room's remote message log in sync and
// coordinates sending, clearing and end-of-session identity handling.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/metrics"
)

// DefaultPollInterval is how often the room log is re-fetched.
const DefaultPollInterval = 3 * time.Second

// ErrAlreadyStarted is returned by Start on a running synchronizer.
var ErrAlreadyStarted = errors.New("synchronizer already started")

// Lister fetches the full message list of a room.
type Lister interface {
	List(ctx context.Context, room core.Room) ([]core.Message, error)
}

// SyncConfig tunes a Synchronizer. Zero values pick the defaults.
type SyncConfig struct {
	Interval time.Duration
	Clock    clock.Clock
	Metrics  *metrics.Client
}

type subscriber struct {
	id int
	fn func([]core.Message)
}

// Synchronizer polls a room's log and publishes every successful snapshot.
//
// Each fetch takes a sequence number when it starts; a result is applied only if
// no later-started fetch has been applied already, so a slow response can never
// overwrite a newer one. Failed fetches leave the current snapshot in place.
type Synchronizer struct {
	log      Lister
	clock    clock.Clock
	interval time.Duration
	metrics  *metrics.Client
	logger   *zerolog.Logger

	mu       sync.Mutex
	room     core.Room
	messages []core.Message
	started  uint64
	applied  uint64
	subs     []subscriber
	nextSub  int
	cancel   context.CancelFunc
	done     chan struct{}
	unsub    func()

	// pubMu orders apply-and-publish steps so subscribers see snapshots in apply order.
	pubMu sync.Mutex
}

// NewSynchronizer creates a stopped synchronizer.
func NewSynchronizer(log Lister, cfg SyncConfig, logger *zerolog.Logger) *Synchronizer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewClient(nil)
	}
	return &Synchronizer{
		log:      log,
		clock:    cfg.Clock,
		interval: cfg.Interval,
		metrics:  cfg.Metrics,
		logger:   logger,
		messages: []core.Message{},
	}
}

// Start fetches room once right away and then once per interval until Stop or
// until ctx is done. onUpdate, if non-nil, receives every published snapshot
// until Stop or until the loop ends with ctx. Switching to a different room drops
// the previous room's snapshot.
func (s *Synchronizer) Start(ctx context.Context, room core.Room, onUpdate func([]core.Message)) error {
	s.reap()

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if room != s.room {
		s.room = room
		s.messages = []core.Message{}
		s.applied = s.started
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	// The ticker is armed before the loop starts so no tick can be missed.
	ticker := s.clock.Ticker(s.interval)
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	if onUpdate != nil {
		unsub := s.Subscribe(onUpdate)
		s.mu.Lock()
		s.unsub = unsub
		s.mu.Unlock()
	}

	s.logger.Debug().Str("room", room.String()).Dur("interval", s.interval).Msg("synchronizer started")
	go s.loop(runCtx, ticker, done)
	return nil
}

// Stop cancels the poll timer and waits for the loop to exit. After Stop returns
// no further scheduled fetch runs. It must not be called from a subscriber.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel, done, unsub := s.cancel, s.done, s.unsub
	s.cancel, s.done, s.unsub = nil, nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	if unsub != nil {
		unsub()
	}
	s.logger.Debug().Str("room", s.Room().String()).Msg("synchronizer stopped")
}

// Running reports whether the poll loop is active. A loop whose context was
// cancelled is not running, even before Stop is called.
func (s *Synchronizer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil && !closed(s.done)
}

// reap releases the handle of a loop that already ended with its context.
func (s *Synchronizer) reap() {
	s.mu.Lock()
	if s.done == nil || !closed(s.done) {
		s.mu.Unlock()
		return
	}
	cancel, unsub := s.cancel, s.unsub
	s.cancel, s.done, s.unsub = nil, nil, nil
	s.mu.Unlock()

	cancel()
	if unsub != nil {
		unsub()
	}
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// RefreshNow runs one fetch-and-publish cycle in the caller's goroutine without
// touching the poll schedule. It reports whether a new snapshot was published.
// It is a no-op on a stopped synchronizer.
func (s *Synchronizer) RefreshNow(ctx context.Context) bool {
	if !s.Running() {
		return false
	}
	return s.refresh(ctx)
}

// Reset publishes an empty snapshot and discards any fetch started before it.
func (s *Synchronizer) Reset() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.applied = s.started
	s.messages = []core.Message{}
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	publish(subs, nil)
}

// Messages returns a copy of the current snapshot.
func (s *Synchronizer) Messages() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneMessages(s.messages)
}

// Room returns the room currently being synchronized.
func (s *Synchronizer) Room() core.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Subscribe registers fn for every published snapshot and returns a function that
// removes it. fn runs on the publishing goroutine and must not call Stop.
func (s *Synchronizer) Subscribe(fn func([]core.Message)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Synchronizer) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	s.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Synchronizer) refresh(ctx context.Context) bool {
	s.mu.Lock()
	s.started++
	seq := s.started
	room := s.room
	s.mu.Unlock()

	s.metrics.Polls.Inc()
	msgs, err := s.log.List(ctx, room)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.metrics.PollFailures.Inc()
		s.logger.Warn().Err(err).Str("room", room.String()).Msg("fetch failed, keeping last snapshot")
		return false
	}
	return s.apply(seq, room, msgs)
}

func (s *Synchronizer) apply(seq uint64, room core.Room, msgs []core.Message) bool {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if seq <= s.applied || room != s.room {
		s.mu.Unlock()
		s.metrics.StaleDiscarded.Inc()
		s.logger.Debug().Uint64("seq", seq).Str("room", room.String()).Msg("discarding stale fetch result")
		return false
	}
	s.applied = seq
	s.messages = core.CloneMessages(msgs)
	snapshot := s.messages
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	publish(subs, snapshot)
	return true
}

func publish(subs []subscriber, snapshot []core.Message) {
	for _, sub := range subs {
		sub.fn(core.CloneMessages(snapshot))
	}
}
