package roomlog

import (
	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/proto"
)

func messageFromWire(m proto.Message) core.Message {
	return core.Message{
		ID:   core.MessageID(m.ID),
		Name: m.Name,
		Text: m.Message,
		Time: m.Time.Time,
	}
}

func messagesFromWire(in []proto.Message) []core.Message {
	out := make([]core.Message, 0, len(in))
	for _, m := range in {
		out = append(out, messageFromWire(m))
	}
	return out
}
