package core

import "time"

// MessageID is a server-assigned identifier, unique within a room.
// The client never interprets it.
type MessageID string

// Message is the domain model for a chat message.
type Message struct {
	ID   MessageID
	Name string
	Text string
	Time time.Time
}

// CloneMessages returns a copy of msgs that never aliases the input.
// A nil input yields an empty, non-nil slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
