package core

import (
	"encoding/json"

	"github.com/teamhub/relay-server/internal/proto"
	"github.com/teamhub/relay-server/internal/store"
)

// Event is one outbound notification: a wire event name plus its fixed
// payload shape. Constructors below are the only way events are built, so
// fan-out cannot emit a malformed payload.
type Event struct {
	Name string
	Data any
	Err  *proto.Error
}

func userPayload(id Identity) proto.UserPayload {
	return proto.UserPayload{
		ID:             id.ID,
		Username:       id.Username,
		ProfilePicture: id.Avatar,
	}
}

func messagePayload(msg *store.Message, sender Identity) proto.MessagePayload {
	return proto.MessagePayload{
		ID:          msg.ID,
		ChannelID:   msg.ChannelID,
		Sender:      userPayload(sender),
		Content:     msg.Content,
		Attachments: msg.Attachments,
		ThreadID:    msg.ThreadID,
		CreatedAt:   msg.CreatedAt.Unix(),
	}
}

// NewMessageEvent announces a persisted channel message.
func NewMessageEvent(msg *store.Message, sender Identity) *Event {
	return &Event{Name: proto.EventNewMessage, Data: messagePayload(msg, sender)}
}

// NewThreadMessageEvent announces a persisted message inside a thread.
func NewThreadMessageEvent(msg *store.Message, sender Identity) *Event {
	return &Event{Name: proto.EventNewThreadMessage, Data: messagePayload(msg, sender)}
}

// TypingEvent announces a typing-indicator change.
func TypingEvent(user Identity, channelID string, isTyping bool) *Event {
	return &Event{Name: proto.EventTyping, Data: proto.TypingPayload{
		User:      userPayload(user),
		ChannelID: channelID,
		IsTyping:  isTyping,
	}}
}

// UserJoinedEvent announces a new video-room participant.
func UserJoinedEvent(user Identity) *Event {
	return &Event{Name: proto.EventUserJoined, Data: proto.UserJoinedPayload{
		UserID:         user.ID,
		Username:       user.Username,
		ProfilePicture: user.Avatar,
	}}
}

// ExistingPeersEvent tells a joining participant which peers to negotiate
// with. The joiner itself is never in the list.
func ExistingPeersEvent(peers []string) *Event {
	if peers == nil {
		peers = []string{}
	}
	return &Event{Name: proto.EventExistingPeers, Data: proto.ExistingPeersPayload{Peers: peers}}
}

// UserLeftEvent announces a departed room member.
func UserLeftEvent(user Identity) *Event {
	return &Event{Name: proto.EventUserLeft, Data: proto.UserLeftPayload{
		UserID:   user.ID,
		Username: user.Username,
	}}
}

// ReceivingSignalEvent forwards an offer-leg negotiation payload.
func ReceivingSignalEvent(senderID string, signal json.RawMessage) *Event {
	return &Event{Name: proto.EventReceivingSignal, Data: proto.SignalPayload{
		UserID: senderID,
		Signal: signal,
	}}
}

// ReceivingReturnedSignalEvent forwards an answer-leg negotiation payload.
func ReceivingReturnedSignalEvent(senderID string, signal json.RawMessage) *Event {
	return &Event{Name: proto.EventReceivingReturnedSignal, Data: proto.SignalPayload{
		UserID: senderID,
		Signal: signal,
	}}
}

// UserScreenShareEvent announces a screen-share toggle in a room.
func UserScreenShareEvent(user Identity, isSharing bool) *Event {
	return &Event{Name: proto.EventUserScreenShare, Data: proto.ScreenSharePayload{
		UserID:    user.ID,
		Username:  user.Username,
		IsSharing: isSharing,
	}}
}

// RoomChatEvent is an in-meeting chat message fanned out to the room.
func RoomChatEvent(user Identity, message string, timestamp int64) *Event {
	return &Event{Name: proto.EventChatMessage, Data: proto.RoomChatPayload{
		UserID:    user.ID,
		Username:  user.Username,
		Message:   message,
		Timestamp: timestamp,
	}}
}

// ErrorEvent reports a domain error to the offending connection.
func ErrorEvent(err *CoreError) *Event {
	return &Event{Name: proto.EventError, Err: &proto.Error{Code: err.Code, Msg: err.Message}}
}
