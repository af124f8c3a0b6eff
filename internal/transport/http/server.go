package http

import (
	stdhttp "net/http"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/config"
	"github.com/Gauravprp/chatsy/internal/metrics"
	"github.com/Gauravprp/chatsy/internal/notify"
	"github.com/Gauravprp/chatsy/internal/store"
)

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Store    store.Store
	Hub      *notify.Hub
	Metrics  *metrics.Server
	Gatherer prometheus.Gatherer
	Clock    clock.Clock
}

// NewServer builds an HTTP server exposing the room message log.
func NewServer(deps Deps, cfg config.ServerConfig, logger *zerolog.Logger) *stdhttp.Server {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewServer(nil)
	}
	if deps.Hub == nil {
		deps.Hub = notify.NewHub(deps.Metrics.Subscribers, logger)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler(deps.Store))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	// Push subscriptions are long-lived and not delayed by the cold start.
	router.GET("/messages/ws", gin.WrapH(NewWSHandler(deps.Hub, logger)))

	handlers := NewMessageHandlers(deps.Store, deps.Hub, deps.Metrics, newRateLimiter(cfg.RateLimit, deps.Clock), deps.Clock, logger)
	messages := router.Group("/messages")
	messages.Use(coldStartMiddleware(newColdStart(cfg.ColdStart, cfg.IdleAfter, deps.Clock), logger))
	{
		messages.GET("", handlers.List)
		messages.POST("", handlers.Append)
		messages.DELETE("", handlers.Clear)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Ping(c.Request.Context()); err != nil {
			c.String(stdhttp.StatusServiceUnavailable, "unavailable")
			return
		}
		c.String(stdhttp.StatusOK, "ok")
	}
}
