package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	// EventChanged tells push subscribers that a room's log changed.
	EventChanged = "changed"
)

// Message is the REST representation of a chat message.
type Message struct {
	ID      ID        `json:"id"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
	Time    Timestamp `json:"time"`
}

// AppendRequest is the body of POST /messages.
type AppendRequest struct {
	Name    string `json:"name" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ClearResponse is returned by DELETE /messages.
type ClearResponse struct {
	Room    string `json:"room"`
	Deleted int64  `json:"deleted"`
}

// ErrorResponse is the body of non-2xx REST replies.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Outbound is the envelope for push notifications sent to subscribers.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventRoomChanged is the payload of an EventChanged notification.
type EventRoomChanged struct {
	Room   string `json:"room"`
	Reason string `json:"reason,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ID is an opaque message identifier. Servers may send it as a JSON number
// or string; it is always re-encoded as a string.
type ID string

// UnmarshalJSON accepts both numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Timestamp is a message time. It decodes RFC 3339 strings and epoch
// milliseconds, and encodes as RFC 3339 with millisecond precision.
type Timestamp struct {
	time.Time
}

// MarshalJSON encodes the time as an RFC 3339 string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// UnmarshalJSON accepts RFC 3339 strings, numeric strings and epoch milliseconds.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("time: %w", err)
		}
		t.Time = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("time: %w", err)
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}
