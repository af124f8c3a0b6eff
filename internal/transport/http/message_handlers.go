package http

import (
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/metrics"
	"github.com/Gauravprp/chatsy/internal/notify"
	"github.com/Gauravprp/chatsy/internal/proto"
	"github.com/Gauravprp/chatsy/internal/store"
)

// MessageHandlers provides HTTP handlers for the per-room message log.
type MessageHandlers struct {
	store   store.MessageStore
	hub     *notify.Hub
	metrics *metrics.Server
	limiter *rateLimiter
	clock   clock.Clock
	log     *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, hub *notify.Hub, m *metrics.Server, limiter *rateLimiter, clk clock.Clock, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store:   st,
		hub:     hub,
		metrics: m,
		limiter: limiter,
		clock:   clk,
		log:     logger,
	}
}

// List returns every message of the room, oldest first.
// GET /messages?room={room}
func (h *MessageHandlers) List(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}

	msgs, err := h.store.ListMessages(c.Request.Context(), room)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, errorToWire(core.ErrInternal))
		return
	}

	c.JSON(http.StatusOK, messagesToWire(msgs))
}

// Append stores a new message and notifies push subscribers.
// POST /messages?room={room}
func (h *MessageHandlers) Append(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}

	if !h.limiter.allow(room) {
		h.metrics.Throttled.Inc()
		c.JSON(http.StatusTooManyRequests, errorToWire(core.ErrRateLimited))
		return
	}

	var req proto.AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid append request")
		c.JSON(http.StatusBadRequest, errorToWire(core.ErrInvalidBody))
		return
	}
	name := strings.TrimSpace(req.Name)
	text := strings.TrimSpace(req.Message)
	if name == "" || text == "" {
		c.JSON(http.StatusBadRequest, errorToWire(core.ErrNameAndText))
		return
	}

	msg := &store.Message{
		Room:      room,
		Name:      name,
		Body:      text,
		CreatedAt: h.clock.Now().UTC(),
	}
	if err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, errorToWire(core.ErrInternal))
		return
	}

	h.metrics.Appended.Inc()
	h.hub.Publish(room, notify.ReasonAppended)
	h.log.Debug().Str("room", room).Int64("message_id", msg.ID).Msg("message appended")
	c.JSON(http.StatusCreated, messageToWire(msg))
}

// Clear deletes every message of the room.
// DELETE /messages?room={room}
func (h *MessageHandlers) Clear(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}

	n, err := h.store.ClearRoom(c.Request.Context(), room)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to clear room")
		c.JSON(http.StatusInternalServerError, errorToWire(core.ErrInternal))
		return
	}

	h.metrics.Cleared.Inc()
	h.hub.Publish(room, notify.ReasonCleared)
	h.log.Info().Str("room", room).Int64("deleted", n).Msg("room cleared")
	c.JSON(http.StatusOK, proto.ClearResponse{Room: room, Deleted: n})
}

// maxRoomLength bounds room names accepted from the query string.
const maxRoomLength = 256

func normalizeRoom(raw string) string {
	return core.NormalizeRoom(raw).String()
}

// roomParam reads the room query parameter, aborting with 400 when it is unusable.
func roomParam(c *gin.Context) (string, bool) {
	room := normalizeRoom(c.Query("room"))
	if len(room) > maxRoomLength {
		c.JSON(http.StatusBadRequest, errorToWire(core.ErrRoomTooLong))
		return "", false
	}
	return room, true
}
