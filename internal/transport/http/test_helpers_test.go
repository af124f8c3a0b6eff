package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Gauravprp/chatsy/internal/config"
	"github.com/Gauravprp/chatsy/internal/log"
	"github.com/Gauravprp/chatsy/internal/metrics"
	"github.com/Gauravprp/chatsy/internal/notify"
	"github.com/Gauravprp/chatsy/internal/store"
	"github.com/Gauravprp/chatsy/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

type testServer struct {
	*httptest.Server
	store    store.Store
	hub      *notify.Hub
	metrics  *metrics.Server
	registry *prometheus.Registry
	clock    *clock.Mock
}

// startTestServer runs the full router against an in-memory store and a mock clock.
func startTestServer(t *testing.T, mutate func(*config.ServerConfig)) *testServer {
	t.Helper()

	cfg := config.ServerConfig{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewServer(reg)
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	st := createTestStore(t)
	hub := notify.NewHub(m.Subscribers, log.Nop())

	server := NewServer(Deps{
		Store:    st,
		Hub:      hub,
		Metrics:  m,
		Gatherer: reg,
		Clock:    mock,
	}, cfg, log.Nop())

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, store: st, hub: hub, metrics: m, registry: reg, clock: mock}
}
