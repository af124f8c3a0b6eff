package http

import (
	"context"
	"errors"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/notify"
)

// WSHandler upgrades HTTP connections and streams room change hints to them.
// The stream is write-only; anything the peer sends is ignored.
type WSHandler struct {
	hub *notify.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *notify.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	room := normalizeRoom(r.URL.Query().Get("room"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if len(room) > maxRoomLength {
		_ = writeError(r.Context(), conn, core.ErrRoomTooLong)
		conn.Close(websocket.StatusPolicyViolation, "bad room")
		return
	}

	sub := h.hub.Subscribe(room)
	defer h.hub.Unsubscribe(sub)

	// CloseRead discards inbound frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	err = h.writeLoop(ctx, conn, sub)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			reason = err.Error()
			h.log.Warn().Err(err).Str("subscriber_id", sub.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *notify.Subscriber) error {
	for {
		select {
		case event := <-sub.Events:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Str("subscriber_id", sub.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// writeError sends a protocol error to the peer.
func writeError(ctx context.Context, conn *websocket.Conn, err *core.CoreError) error {
	return wsjson.Write(ctx, conn, errorToOutbound(err))
}
