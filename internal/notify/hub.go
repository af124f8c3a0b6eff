// Package notify fans out "room changed" hints to push subscribers.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/proto"
	"github.com/Gauravprp/chatsy/internal/utils"
)

// Change reasons.
const (
	ReasonAppended = "appended"
	ReasonCleared  = "cleared"
)

const subscriberBuffer = 8

// Subscriber receives change events for one room.
type Subscriber struct {
	ID     string
	Room   string
	Events chan proto.Outbound
}

// Gauge is the subset of a prometheus gauge the hub updates.
type Gauge interface {
	Inc()
	Dec()
}

// Hub tracks subscribers per room.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Subscriber]struct{}

	gauge Gauge
	log   *zerolog.Logger
}

// NewHub creates an empty hub. gauge may be nil.
func NewHub(gauge Gauge, logger *zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Subscriber]struct{}),
		gauge: gauge,
		log:   logger,
	}
}

// Subscribe registers a new subscriber for room.
func (h *Hub) Subscribe(room string) *Subscriber {
	sub := &Subscriber{
		ID:     utils.NewID(),
		Room:   room,
		Events: make(chan proto.Outbound, subscriberBuffer),
	}

	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.rooms[room] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	if h.gauge != nil {
		h.gauge.Inc()
	}
	h.log.Debug().Str("room", room).Str("subscriber_id", sub.ID).Msg("push subscriber joined")
	return sub
}

// Unsubscribe removes sub. Returns true if it was registered.
func (h *Hub) Unsubscribe(sub *Subscriber) bool {
	h.mu.Lock()
	subs, ok := h.rooms[sub.Room]
	if ok {
		_, ok = subs[sub]
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, sub.Room)
		}
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	if h.gauge != nil {
		h.gauge.Dec()
	}
	h.log.Debug().Str("room", sub.Room).Str("subscriber_id", sub.ID).Msg("push subscriber left")
	return true
}

// Publish tells every subscriber of room that its log changed.
// It returns the number of subscribers the event was delivered to.
func (h *Hub) Publish(room, reason string) int {
	event := proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventChanged,
		Data:  proto.EventRoomChanged{Room: room, Reason: reason},
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.rooms[room] {
		select {
		case sub.Events <- event:
			delivered++
		default:
			// Drop if slow consumer; a later poll catches up anyway.
			h.log.Debug().Str("room", room).Str("subscriber_id", sub.ID).Msg("dropping push event for slow subscriber")
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers for room.
func (h *Hub) Subscribers(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
