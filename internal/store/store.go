package store

import (
	"context"
	"time"
)

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	Room      string
	Name      string
	Body      string
	CreatedAt time.Time
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns every message of a room in insertion order.
	ListMessages(ctx context.Context, room string) ([]*Message, error)

	// ClearRoom deletes every message of a room and reports how many were removed.
	ClearRoom(ctx context.Context, room string) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore

	// Ping checks the underlying database is reachable.
	Ping(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
