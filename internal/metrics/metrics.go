// Package metrics holds the prometheus collectors of the client and the reference server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatsy"

// Client counts what the synchronization layer does.
type Client struct {
	Polls          prometheus.Counter
	PollFailures   prometheus.Counter
	StaleDiscarded prometheus.Counter
	Sends          *prometheus.CounterVec
	Warmups        prometheus.Counter
}

// NewClient registers client collectors on reg. A nil reg yields unregistered
// collectors, which still count but are never exported.
func NewClient(reg prometheus.Registerer) *Client {
	m := &Client{
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "polls_total",
			Help:      "Fetch-and-publish cycles started.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "poll_failures_total",
			Help:      "Fetches that failed and left the local view stale.",
		}),
		StaleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "stale_responses_discarded_total",
			Help:      "Fetch results dropped because a newer fetch had already been applied.",
		}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "sends_total",
			Help:      "Send attempts by outcome.",
		}, []string{"outcome"}),
		Warmups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "warmups_total",
			Help:      "Sends that exceeded the warm-up threshold.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Polls, m.PollFailures, m.StaleDiscarded, m.Sends, m.Warmups)
	}
	return m
}

// Server counts what the reference backend does.
type Server struct {
	Appended    prometheus.Counter
	Cleared     prometheus.Counter
	Subscribers prometheus.Gauge
	Throttled   prometheus.Counter
}

// NewServer registers server collectors on reg.
func NewServer(reg prometheus.Registerer) *Server {
	m := &Server{
		Appended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "messages_appended_total",
			Help:      "Messages appended across all rooms.",
		}),
		Cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "rooms_cleared_total",
			Help:      "Room clear operations.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "push_subscribers",
			Help:      "Connected push subscribers.",
		}),
		Throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "appends_throttled_total",
			Help:      "Appends rejected by the per-room rate limit.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Appended, m.Cleared, m.Subscribers, m.Throttled)
	}
	return m
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
