package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/utils"
)

// ContextKeyRequestID is the context key for storing the request id.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.RequestIDHeader)
		if id == "" {
			id = utils.NewID()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(utils.RequestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("room", c.Query("room")).
			Str("request_id", c.GetString(ContextKeyRequestID)).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

// coldStart simulates a backend that has to boot after sitting idle: the first
// request after idleAfter without traffic, and every request that arrives while
// it is booting, waits until the boot delay has passed.
type coldStart struct {
	clock     clock.Clock
	delay     time.Duration
	idleAfter time.Duration

	mu        sync.Mutex
	last      time.Time
	warmUntil time.Time
}

func newColdStart(delay, idleAfter time.Duration, clk clock.Clock) *coldStart {
	if delay <= 0 {
		return nil
	}
	return &coldStart{clock: clk, delay: delay, idleAfter: idleAfter}
}

// wait blocks until the backend is warm and returns how long the caller waited.
func (cs *coldStart) wait(ctx context.Context) (time.Duration, error) {
	if cs == nil {
		return 0, nil
	}

	cs.mu.Lock()
	now := cs.clock.Now()
	if (cs.last.IsZero() || now.Sub(cs.last) > cs.idleAfter) && !now.Before(cs.warmUntil) {
		cs.warmUntil = now.Add(cs.delay)
	}
	cs.last = now
	remaining := cs.warmUntil.Sub(now)
	cs.mu.Unlock()

	if remaining <= 0 {
		return 0, nil
	}
	timer := cs.clock.Timer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return remaining, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// coldStartMiddleware delays requests while the simulated backend boots.
// A nil coldStart disables it.
func coldStartMiddleware(cs *coldStart, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		waited, err := cs.wait(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorToWire(core.ErrStartingUp))
			return
		}
		if waited > 0 {
			logger.Info().Dur("waited", waited).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("served request after cold start")
		}
		c.Next()
	}
}
