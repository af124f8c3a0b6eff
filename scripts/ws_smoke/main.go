package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Gauravprp/chatsy/internal/core"
	chatlog "github.com/Gauravprp/chatsy/internal/log"
	"github.com/Gauravprp/chatsy/internal/proto"
	"github.com/Gauravprp/chatsy/internal/push"
	"github.com/Gauravprp/chatsy/internal/roomlog"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run subscribes to a room's push channel, appends one message over HTTP and waits
// for the change notification, then lists the room to check the message landed.
func run() error {
	apiURL := flag.String("api", "http://localhost:8080/messages", "message endpoint")
	user := flag.String("user", "tester", "name to post as")
	room := flag.String("room", "smoke", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target := core.RoomFromQuery(*room)
	wsURL, err := push.Endpoint(*apiURL, target)
	if err != nil {
		return fmt.Errorf("push endpoint: %w", err)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	client, err := roomlog.New(*apiURL, chatlog.Nop(), roomlog.WithTimeout(*timeout))
	if err != nil {
		return err
	}
	sent, err := client.Append(ctx, target, *user, *text)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	fmt.Printf("Appended: id=%s room=%s name=%s\n", sent.ID, target, sent.Name)

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		fmt.Println()

		if outbound.Error != nil {
			return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
		}
		if outbound.Event != proto.EventChanged {
			continue
		}

		raw, err := json.Marshal(outbound.Data)
		if err != nil {
			return fmt.Errorf("marshal outbound data: %w", err)
		}
		var evt proto.EventRoomChanged
		if err := json.Unmarshal(raw, &evt); err != nil {
			fmt.Printf("Raw data: %s\n", string(raw))
			return fmt.Errorf("unmarshal change: %w", err)
		}
		fmt.Printf("Changed: room=%s reason=%s\n", evt.Room, evt.Reason)
		break
	}

	msgs, err := client.List(ctx, target)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	for _, m := range msgs {
		if m.ID == sent.ID {
			fmt.Printf("Listed %d message(s), ours included\n", len(msgs))
			return nil
		}
	}
	return fmt.Errorf("message %s missing from list of %d", sent.ID, len(msgs))
}
