package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/notify"
	"github.com/Gauravprp/chatsy/internal/proto"
)

func dialPush(t *testing.T, ctx context.Context, ts *testServer, room string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/messages/ws?room=" + room
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitSubscribers(t *testing.T, hub *notify.Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(room) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers in %q, have %d", n, room, hub.Subscribers(room))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPushNotifiesOnAppendAndClear(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialPush(t, ctx, ts, "abc")
	defer conn.Close(websocket.StatusNormalClosure, "done")
	waitSubscribers(t, ts.hub, "abc", 1)

	doRequest(t, ts, http.MethodPost, "/messages?room=abc", `{"name":"Gaurav","message":"hi"}`)
	doRequest(t, ts, http.MethodDelete, "/messages?room=abc", "")

	for _, wantReason := range []string{notify.ReasonAppended, notify.ReasonCleared} {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read outbound: %v", err)
		}
		if outbound.Type != proto.OutboundTypeEvent || outbound.Event != proto.EventChanged {
			t.Fatalf("unexpected outbound: %+v", outbound)
		}
		var data proto.EventRoomChanged
		if err := json.Unmarshal(outbound.Data, &data); err != nil {
			t.Fatalf("unmarshal event data: %v", err)
		}
		if data.Room != "abc" || data.Reason != wantReason {
			t.Fatalf("unexpected event payload: %+v", data)
		}
	}
}

func TestPushSubscriberRemovedOnDisconnect(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialPush(t, ctx, ts, "abc")
	waitSubscribers(t, ts.hub, "abc", 1)

	conn.Close(websocket.StatusNormalClosure, "bye")
	waitSubscribers(t, ts.hub, "abc", 0)
}

func TestPushRejectsOverlongRoom(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialPush(t, ctx, ts, strings.Repeat("r", maxRoomLength+1))
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	if outbound.Type != proto.OutboundTypeError || outbound.Error == nil {
		t.Fatalf("expected an error frame, got %+v", outbound)
	}
	if outbound.Error.Code != core.ErrCodeBadRequest || outbound.Error.Msg != core.ErrRoomTooLong.Message {
		t.Fatalf("unexpected error payload: %+v", outbound.Error)
	}
}
