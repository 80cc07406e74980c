package http

import (
	"context"
	"encoding/json"

	"github.com/teamhub/relay-server/internal/core"
	"github.com/teamhub/relay-server/internal/proto"
)

// dispatch routes one inbound message to the session. A malformed payload
// is answered with a protocol error on the offending connection only; it
// never propagates past this boundary.
func dispatch(ctx context.Context, session *core.Session, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundJoinChannel:
		session.JoinChannel(rawID(inbound.Data, "channelId"))
	case proto.InboundLeaveChannel:
		session.LeaveChannel(rawID(inbound.Data, "channelId"))
	case proto.InboundJoinThread:
		session.JoinThread(rawID(inbound.Data, "threadId"))
	case proto.InboundLeaveThread:
		session.LeaveThread(rawID(inbound.Data, "threadId"))
	case proto.InboundJoinRoom:
		var ref proto.RoomRef
		if err := json.Unmarshal(inbound.Data, &ref); err != nil {
			return badPayload(inbound.Type)
		}
		session.JoinRoom(ref.RoomID)
	case proto.InboundLeaveRoom:
		var ref proto.RoomRef
		if err := json.Unmarshal(inbound.Data, &ref); err != nil {
			return badPayload(inbound.Type)
		}
		session.LeaveRoom(ref.RoomID)
	case proto.InboundSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.SendMessage(ctx, data)
	case proto.InboundTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.Typing(data)
	case proto.InboundSendingSignal:
		var data proto.SignalData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.SendingSignal(data)
	case proto.InboundReturningSignal:
		var data proto.SignalData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.ReturningSignal(data)
	case proto.InboundStartScreenShare:
		var data proto.ScreenShareData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.StartScreenShare(data.RoomID)
	case proto.InboundStopScreenShare:
		var data proto.ScreenShareData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.StopScreenShare(data.RoomID)
	case proto.InboundSendChatMessage:
		var data proto.RoomChatData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badPayload(inbound.Type)
		}
		session.SendChatMessage(data)
	default:
		return &proto.Error{Code: "invalid_message", Msg: "unknown message type"}
	}
	return nil
}

func badPayload(msgType string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed payload for " + msgType}
}

// rawID tolerates both a bare JSON string and an object-wrapped id for
// channel/thread join payloads; browser clients send the bare form.
func rawID(data json.RawMessage, field string) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj[field]
	}
	return ""
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	if event.Err != nil {
		return proto.Outbound{Event: proto.EventError, Error: event.Err}
	}
	return proto.Outbound{Event: event.Name, Data: event.Data}
}
