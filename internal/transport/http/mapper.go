package http

import (
	"strconv"

	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/proto"
	"github.com/Gauravprp/chatsy/internal/store"
)

func messageToWire(msg *store.Message) proto.Message {
	return proto.Message{
		ID:      proto.ID(strconv.FormatInt(msg.ID, 10)),
		Name:    msg.Name,
		Message: msg.Body,
		Time:    proto.Timestamp{Time: msg.CreatedAt},
	}
}

func messagesToWire(msgs []*store.Message) []proto.Message {
	out := make([]proto.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToWire(m))
	}
	return out
}

func errorToWire(err *core.CoreError) proto.ErrorResponse {
	return proto.ErrorResponse{Error: err.Message, Code: err.Code}
}

func errorToOutbound(err *core.CoreError) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: err.Code, Msg: err.Message},
	}
}
