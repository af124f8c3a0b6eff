package app

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/config"
	"github.com/Gauravprp/chatsy/internal/metrics"
	"github.com/Gauravprp/chatsy/internal/notify"
	"github.com/Gauravprp/chatsy/internal/store"
	"github.com/Gauravprp/chatsy/internal/store/sqlite"
	transporthttp "github.com/Gauravprp/chatsy/internal/transport/http"
)

// App wires together the reference message backend.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger

	// cancelBase ends long-lived push connections, which Shutdown does not wait for.
	cancelBase context.CancelFunc
}

// New constructs the backend with provided configuration.
func New(cfg config.ServerConfig, logger *zerolog.Logger) (*App, error) {
	// Initialize database store
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewServer(reg)

	server := transporthttp.NewServer(transporthttp.Deps{
		Store:    st,
		Hub:      notify.NewHub(m.Subscribers, logger),
		Metrics:  m,
		Gatherer: reg,
	}, cfg, logger)

	baseCtx, cancel := context.WithCancel(context.Background())
	server.BaseContext = func(net.Listener) context.Context { return baseCtx }

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
		cancelBase:      cancel,
	}, nil
}

// Handler exposes the router, e.g. for httptest servers.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("starting http server")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		a.cancelBase()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close releases the database and ends open push connections.
func (a *App) Close() {
	a.cancelBase()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
		a.store = nil
	}
}
