package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeFetchFailed      = "fetch_failed"
	ErrCodeAppendFailed     = "append_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeIdentityRequired = "identity_required"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeStartingUp       = "starting_up"
	ErrCodeInternal         = "internal"
)

var (
	ErrEmptyName    = errors.New("name is required")
	ErrEmptyMessage = errors.New("message is empty")
	ErrBadStatus    = errors.New("unexpected status")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// NewCoreError builds a CoreError, e.g. from a decoded error body.
func NewCoreError(code, msg string) *CoreError {
	return coreError(code, msg)
}

// Errors the message backend reports to its callers.
var (
	ErrRoomTooLong = coreError(ErrCodeBadRequest, "room name too long")
	ErrInvalidBody = coreError(ErrCodeBadRequest, "invalid request body")
	ErrNameAndText = coreError(ErrCodeBadRequest, "name and message are required")
	ErrRateLimited = coreError(ErrCodeRateLimited, "rate limit exceeded")
	ErrStartingUp  = coreError(ErrCodeStartingUp, "backend is starting up")
	ErrInternal    = coreError(ErrCodeInternal, "internal server error")
)

// FetchError reports a failed list of a room. The local view stays stale
// until the next successful poll.
type FetchError struct {
	Room   Room
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	return opError("fetch", e.Room, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *FetchError) Code() string { return ErrCodeFetchFailed }

// AppendError reports a failed send. The compose text is kept for retry.
type AppendError struct {
	Room   Room
	Status int
	Err    error
}

func (e *AppendError) Error() string {
	return opError("append", e.Room, e.Status, e.Err)
}

func (e *AppendError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *AppendError) Code() string {
	if errors.Is(e.Err, ErrEmptyName) || errors.Is(e.Err, ErrEmptyMessage) {
		return ErrCodeBadRequest
	}
	return ErrCodeAppendFailed
}

// DeleteError reports a failed room clear. The local list is left untouched.
type DeleteError struct {
	Room   Room
	Status int
	Err    error
}

func (e *DeleteError) Error() string {
	return opError("clear", e.Room, e.Status, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *DeleteError) Code() string { return ErrCodeDeleteFailed }

// IdentityError reports a prompt that produced no usable value.
type IdentityError struct {
	Field string
	Err   error
}

func (e *IdentityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s is required: %v", e.Field, e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *IdentityError) Code() string { return ErrCodeIdentityRequired }

func opError(op string, room Room, status int, err error) string {
	msg := fmt.Sprintf("%s room %q", op, room)
	if status != 0 {
		msg += fmt.Sprintf(": status %d", status)
	}
	if err != nil {
		msg += ": " + err.Error()
	}
	return msg
}
