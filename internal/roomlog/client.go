// Package roomlog is the client-side proxy to the remote, room-scoped message log.
package roomlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/proto"
	"github.com/Gauravprp/chatsy/internal/utils"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

// Client talks to a REST endpoint such as https://host/messages.
// It keeps no local state; every call is independent.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	timeout  time.Duration
	log      *zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. It applies to whichever HTTP client
// is used, without changing a client passed in with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the messages endpoint.
func New(endpoint string, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}
	c := &Client{
		endpoint: u,
		http:     &http.Client{},
		log:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// Endpoint returns the messages endpoint URL for room.
func (c *Client) Endpoint(room core.Room) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("room", room.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// List fetches every message of room in server order.
func (c *Client) List(ctx context.Context, room core.Room) ([]core.Message, error) {
	resp, err := c.do(ctx, http.MethodGet, room, nil)
	if err != nil {
		return nil, &core.FetchError{Room: room, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.FetchError{Room: room, Status: resp.StatusCode, Err: statusErr(resp)}
	}

	var wire []proto.Message
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&wire); err != nil {
		return nil, &core.FetchError{Room: room, Status: resp.StatusCode, Err: fmt.Errorf("decode messages: %w", err)}
	}
	return messagesFromWire(wire), nil
}

// Append posts a message. name must be non-empty and text non-empty after trimming;
// the trimmed text is what gets sent. Retrying a failed Append may duplicate the message.
func (c *Client) Append(ctx context.Context, room core.Room, name, text string) (core.Message, error) {
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	if name == "" {
		return core.Message{}, &core.AppendError{Room: room, Err: core.ErrEmptyName}
	}
	if text == "" {
		return core.Message{}, &core.AppendError{Room: room, Err: core.ErrEmptyMessage}
	}

	body, err := json.Marshal(proto.AppendRequest{Name: name, Message: text})
	if err != nil {
		return core.Message{}, &core.AppendError{Room: room, Err: fmt.Errorf("encode body: %w", err)}
	}

	resp, err := c.do(ctx, http.MethodPost, room, body)
	if err != nil {
		return core.Message{}, &core.AppendError{Room: room, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Message{}, &core.AppendError{Room: room, Status: resp.StatusCode, Err: statusErr(resp)}
	}

	// Some backends answer with an empty body; the append still happened.
	var created proto.Message
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&created); err != nil {
		if err != io.EOF {
			c.log.Debug().Err(err).Str("room", room.String()).Msg("append response not decodable")
		}
		return core.Message{Name: name, Text: text}, nil
	}
	return messageFromWire(created), nil
}

// Clear deletes every message in room. It cannot be undone.
func (c *Client) Clear(ctx context.Context, room core.Room) error {
	resp, err := c.do(ctx, http.MethodDelete, room, nil)
	if err != nil {
		return &core.DeleteError{Room: room, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.DeleteError{Room: room, Status: resp.StatusCode, Err: core.ErrBadStatus}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, room core.Room, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(room), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := utils.NewID()
	req.Header.Set(utils.RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("room", room.String()).Str("request_id", requestID).Msg("request failed")
		return nil, err
	}
	c.log.Debug().
		Str("method", method).
		Str("room", room.String()).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("room log request")
	return resp, nil
}

// statusErr reads the server's error body, if any, into a *core.CoreError
// wrapped next to ErrBadStatus.
func statusErr(resp *http.Response) error {
	var body proto.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("%w: %w", core.ErrBadStatus, core.NewCoreError(body.Code, body.Error))
	}
	return core.ErrBadStatus
}
