package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gauravprp/chatsy/internal/log"
	"github.com/Gauravprp/chatsy/internal/metrics"
)

type senderFixture struct {
	log       *fakeLog
	refresher *countingRefresher
	statuses  *statusLog
	clock     *clock.Mock
	metrics   *metrics.Client
	sender    *Sender
}

func newSenderFixture(t *testing.T) *senderFixture {
	t.Helper()
	f := &senderFixture{
		log:       newFakeLog(),
		refresher: &countingRefresher{},
		statuses:  &statusLog{},
		clock:     clock.NewMock(),
		metrics:   metrics.NewClient(nil),
	}
	f.sender = NewSender(f.log, f.refresher, "abc", "Gaurav", SenderConfig{
		Clock:    f.clock,
		Metrics:  f.metrics,
		OnStatus: f.statuses.record,
	}, log.Nop())
	return f
}

// gate makes every Append block until the returned function is called.
func (f *senderFixture) gate() (started <-chan struct{}, release func()) {
	s := make(chan struct{})
	g := make(chan struct{})
	f.log.mu.Lock()
	f.log.appendStarted = s
	f.log.appendGate = g
	f.log.mu.Unlock()
	return s, func() { close(g) }
}

func TestSendSkipsBlankText(t *testing.T) {
	f := newSenderFixture(t)

	for _, text := range []string{"", "   ", "\n\t "} {
		assert.Equal(t, OutcomeSkipped, f.sender.Send(context.Background(), text))
	}
	_, appends, _ := f.log.counts()
	assert.Zero(t, appends)
	assert.Zero(t, f.statuses.count(), "a blank send never leaves Idle")
}

func TestSendTrimsText(t *testing.T) {
	f := newSenderFixture(t)

	require.Equal(t, OutcomeSent, f.sender.Send(context.Background(), "  hi there \n"))
	msgs, _ := f.log.List(context.Background(), "abc")
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi there", msgs[0].Text)
	assert.Equal(t, "Gaurav", msgs[0].Name)
}

func TestFastSendNeverWarmsUp(t *testing.T) {
	f := newSenderFixture(t)

	require.Equal(t, OutcomeSent, f.sender.Send(context.Background(), "hello"))
	assert.Equal(t, []Status{{Phase: PhaseSending}, {}}, f.statuses.all())
	assert.Equal(t, Status{}, f.sender.Status())
	assert.Equal(t, 1, f.refresher.count(), "a successful send refreshes once")

	// The warm-up timer was stopped with the send.
	f.clock.Add(10 * DefaultWarmupDelay)
	assert.Equal(t, 2, f.statuses.count())
	assert.Zero(t, testutil.ToFloat64(f.metrics.Warmups))
}

func TestColdStartCountsSecondsThenResets(t *testing.T) {
	f := newSenderFixture(t)
	started, release := f.gate()

	out := make(chan Outcome, 1)
	go func() { out <- f.sender.Send(context.Background(), "hello") }()
	<-started

	assert.Equal(t, Status{Phase: PhaseSending}, f.sender.Status())

	f.clock.Add(DefaultWarmupDelay)
	require.Eventually(t, func() bool { return f.sender.Status().WarmingUp }, waitFor, tick)
	assert.Equal(t, Status{Phase: PhaseWarmingUp, WarmingUp: true}, f.sender.Status())

	f.clock.Add(DefaultWarmupTick)
	require.Eventually(t, func() bool { return f.sender.Status().WarmupSeconds == 1 }, waitFor, tick)
	f.clock.Add(DefaultWarmupTick)
	require.Eventually(t, func() bool { return f.sender.Status().WarmupSeconds == 2 }, waitFor, tick)

	release()
	require.Equal(t, OutcomeSent, <-out)
	assert.Equal(t, Status{}, f.sender.Status())
	assert.Equal(t, 1, f.refresher.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Warmups))

	// Both timers are gone: advancing the clock changes nothing.
	n := f.statuses.count()
	f.clock.Add(10 * DefaultWarmupTick)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, f.statuses.count())

	all := f.statuses.all()
	assert.Equal(t, Status{}, all[len(all)-1])
}

func TestSecondSendWhileInFlightIsIgnored(t *testing.T) {
	f := newSenderFixture(t)
	started, release := f.gate()

	out := make(chan Outcome, 1)
	go func() { out <- f.sender.Send(context.Background(), "first") }()
	<-started

	assert.Equal(t, OutcomeSkipped, f.sender.Send(context.Background(), "second"))
	release()
	require.Equal(t, OutcomeSent, <-out)

	_, appends, _ := f.log.counts()
	assert.Equal(t, 1, appends)
}

func TestFailedSubmitKeepsDraft(t *testing.T) {
	f := newSenderFixture(t)
	f.log.appendErr = errors.New("bad gateway")
	f.sender.SetDraft("keep me")

	assert.Equal(t, OutcomeFailed, f.sender.Submit(context.Background()))
	assert.Equal(t, "keep me", f.sender.Draft())
	assert.Zero(t, f.refresher.count(), "no refresh after a failed send")
	assert.Equal(t, Status{}, f.sender.Status())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Sends.WithLabelValues("failed")))

	// The lock is released: the next attempt goes out.
	f.log.mu.Lock()
	f.log.appendErr = nil
	f.log.mu.Unlock()
	assert.Equal(t, OutcomeSent, f.sender.Submit(context.Background()))
	assert.Empty(t, f.sender.Draft())
}

func TestSubmitKeepsDraftEditedDuringSend(t *testing.T) {
	f := newSenderFixture(t)
	started, release := f.gate()
	f.sender.SetDraft("hello")

	out := make(chan Outcome, 1)
	go func() { out <- f.sender.Submit(context.Background()) }()
	<-started
	f.sender.SetDraft("hello again")
	release()

	require.Equal(t, OutcomeSent, <-out)
	assert.Equal(t, "hello again", f.sender.Draft())
}

func TestCancelledSendFailsAndResets(t *testing.T) {
	f := newSenderFixture(t)
	started, _ := f.gate()
	ctx, cancel := context.WithCancel(context.Background())

	out := make(chan Outcome, 1)
	go func() { out <- f.sender.Send(ctx, "hello") }()
	<-started
	cancel()

	assert.Equal(t, OutcomeFailed, <-out)
	assert.Equal(t, Status{}, f.sender.Status())
}

func TestPanickingAppendFailsAndResets(t *testing.T) {
	f := newSenderFixture(t)
	f.log.appendPanic = "boom"
	f.sender.SetDraft("hello")

	var out Outcome
	assert.NotPanics(t, func() { out = f.sender.Submit(context.Background()) })
	assert.Equal(t, OutcomeFailed, out)
	assert.Equal(t, Status{}, f.sender.Status())
	assert.Equal(t, "hello", f.sender.Draft(), "draft kept for retry")
	assert.Zero(t, f.refresher.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Sends.WithLabelValues("failed")))

	f.log.mu.Lock()
	f.log.appendPanic = nil
	f.log.mu.Unlock()
	assert.Equal(t, OutcomeSent, f.sender.Send(context.Background(), "again"))
}

func TestPhaseAndOutcomeNames(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "warming_up", PhaseWarmingUp.String())
	assert.Equal(t, "sent", OutcomeSent.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
