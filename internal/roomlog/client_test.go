package roomlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/log"
	"github.com/Gauravprp/chatsy/internal/proto"
	"github.com/Gauravprp/chatsy/internal/utils"
)

// fakeBackend is a minimal in-memory implementation of the messages endpoint.
type fakeBackend struct {
	mu       sync.Mutex
	rooms    map[string][]proto.Message
	nextID   int
	status   int
	requests []*http.Request
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rooms: make(map[string][]proto.Message)}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if f.status != 0 {
		w.WriteHeader(f.status)
		_ = json.NewEncoder(w).Encode(proto.ErrorResponse{Error: "backend unavailable"})
		return
	}

	room := r.URL.Query().Get("room")
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		msgs := f.rooms[room]
		if msgs == nil {
			msgs = []proto.Message{}
		}
		_ = json.NewEncoder(w).Encode(msgs)
	case http.MethodPost:
		var req proto.AppendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		msg := proto.Message{
			ID:      proto.ID(jsonNumber(f.nextID)),
			Name:    req.Name,
			Message: req.Message,
			Time:    proto.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, f.nextID, 0, time.UTC)},
		}
		f.rooms[room] = append(f.rooms[room], msg)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(msg)
	case http.MethodDelete:
		delete(f.rooms, room)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func jsonNumber(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/messages", log.Nop(), WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	c := newTestClient(t, backend)

	msgs, err := c.List(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	created, err := c.Append(ctx, "abc", "Gaurav", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, core.MessageID("1"), created.ID)
	assert.Equal(t, "hi", created.Text, "text is trimmed before sending")

	msgs, err = c.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageID("1"), msgs[0].ID)
	assert.Equal(t, "Gaurav", msgs[0].Name)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, created.Time, msgs[0].Time)

	other, err := c.List(ctx, "xyz")
	require.NoError(t, err)
	assert.Empty(t, other, "rooms are isolated")

	require.NoError(t, c.Clear(ctx, "abc"))
	msgs, err = c.List(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	for _, r := range backend.requests {
		assert.NotEmpty(t, r.Header.Get(utils.RequestIDHeader))
	}
}

func TestAppendValidatesBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	c := newTestClient(t, backend)
	ctx := context.Background()

	_, err := c.Append(ctx, "abc", "Gaurav", "   ")
	var appendErr *core.AppendError
	require.ErrorAs(t, err, &appendErr)
	assert.ErrorIs(t, err, core.ErrEmptyMessage)
	assert.Equal(t, core.ErrCodeBadRequest, appendErr.Code())

	_, err = c.Append(ctx, "abc", "", "hi")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Empty(t, backend.requests)
}

func TestTimeoutAppliesToInjectedClientCopy(t *testing.T) {
	shared := &http.Client{}

	for name, opts := range map[string][]Option{
		"timeout first": {WithTimeout(3 * time.Second), WithHTTPClient(shared)},
		"client first":  {WithHTTPClient(shared), WithTimeout(3 * time.Second)},
	} {
		t.Run(name, func(t *testing.T) {
			c, err := New("http://chat.example/messages", log.Nop(), opts...)
			require.NoError(t, err)
			assert.Equal(t, 3*time.Second, c.http.Timeout)
			assert.NotSame(t, shared, c.http)
			assert.Zero(t, shared.Timeout, "the caller's client is left alone")
		})
	}
}

func TestErrorBodyDecodesToCoreError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(proto.ErrorResponse{Error: "rate limit exceeded", Code: core.ErrCodeRateLimited})
	}))

	_, err := c.Append(context.Background(), "abc", "Gaurav", "hi")
	var coreErr *core.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.ErrCodeRateLimited, coreErr.Code)
	assert.Equal(t, "rate limit exceeded", coreErr.Message)
	assert.ErrorIs(t, err, core.ErrBadStatus)
}

func TestNon2xxMapsToTypedErrors(t *testing.T) {
	backend := newFakeBackend()
	backend.status = http.StatusBadGateway
	c := newTestClient(t, backend)
	ctx := context.Background()

	_, err := c.List(ctx, "abc")
	var fetchErr *core.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusBadGateway, fetchErr.Status)
	assert.ErrorIs(t, err, core.ErrBadStatus)
	assert.Contains(t, err.Error(), "backend unavailable")

	_, err = c.Append(ctx, "abc", "Gaurav", "hi")
	var appendErr *core.AppendError
	require.ErrorAs(t, err, &appendErr)
	assert.Equal(t, http.StatusBadGateway, appendErr.Status)

	err = c.Clear(ctx, "abc")
	var deleteErr *core.DeleteError
	require.ErrorAs(t, err, &deleteErr)
	assert.Equal(t, http.StatusBadGateway, deleteErr.Status)
}

func TestListParseFailureIsFetchError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))

	_, err := c.List(context.Background(), "abc")
	var fetchErr *core.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestNetworkFailureIsFetchError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL + "/messages"
	ts.Close()

	c, err := New(endpoint, log.Nop())
	require.NoError(t, err)

	_, err = c.List(context.Background(), "abc")
	var fetchErr *core.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.Status)
}

func TestAppendToleratesEmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	msg, err := c.Append(context.Background(), "abc", "Gaurav", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.Empty(t, msg.ID)
}

func TestEndpointEscapesRoom(t *testing.T) {
	c, err := New("https://chat.example/messages?v=2", log.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example/messages?room=a%26b&v=2", c.Endpoint("a&b"))
}

func TestNewRejectsBadScheme(t *testing.T) {
	_, err := New("ftp://chat.example/messages", log.Nop())
	require.Error(t, err)
}

func TestContextCancellationAbortsList(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.List(ctx, "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
