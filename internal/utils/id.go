package utils

import "github.com/google/uuid"

// RequestIDHeader carries a per-request correlation id between client and server.
const RequestIDHeader = "X-Request-ID"

// NewID returns a random unique identifier.
func NewID() string {
	return uuid.NewString()
}
