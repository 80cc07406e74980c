package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types. Names are part of the wire contract with the
// browser clients and must not change.
const (
	InboundJoinChannel      = "join-channel"
	InboundLeaveChannel     = "leave-channel"
	InboundJoinThread       = "join-thread"
	InboundLeaveThread      = "leave-thread"
	InboundJoinRoom         = "join-room"
	InboundLeaveRoom        = "leave-room"
	InboundSendMessage      = "send-message"
	InboundTyping           = "typing"
	InboundSendingSignal    = "sending-signal"
	InboundReturningSignal  = "returning-signal"
	InboundStartScreenShare = "start-screen-share"
	InboundStopScreenShare  = "stop-screen-share"
	InboundSendChatMessage  = "send-chat-message"
)

// Outbound event names.
const (
	EventNewMessage              = "new-message"
	EventNewThreadMessage        = "new-thread-message"
	EventTyping                  = "typing"
	EventUserJoined              = "user-joined"
	EventExistingPeers           = "existing-peers"
	EventUserLeft                = "user-left"
	EventReceivingSignal         = "receiving-signal"
	EventReceivingReturnedSignal = "receiving-returned-signal"
	EventUserScreenShare         = "user-screen-share"
	EventChatMessage             = "chat-message"
	EventError                   = "error"
)

// RoomRef addresses a video-call room on join/leave.
type RoomRef struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// SendMessageData is a chat message to persist and fan out.
type SendMessageData struct {
	ChannelID   string   `json:"channelId"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	ThreadID    string   `json:"threadId,omitempty"`
}

// TypingData signals a typing-indicator change in a channel.
type TypingData struct {
	ChannelID string `json:"channelId"`
	IsTyping  bool   `json:"isTyping"`
}

// SignalData carries an opaque peer-negotiation payload. The relay never
// inspects Signal.
type SignalData struct {
	ReceiverID string          `json:"receiverId"`
	SenderID   string          `json:"senderId"`
	Signal     json.RawMessage `json:"signal"`
}

// ScreenShareData toggles screen sharing inside a video room.
type ScreenShareData struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// RoomChatData is an in-meeting chat message (not persisted).
type RoomChatData struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserPayload is the sender/participant shape embedded in outbound events.
type UserPayload struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// MessagePayload mirrors the persisted message returned to channel members.
type MessagePayload struct {
	ID          string      `json:"_id"`
	ChannelID   string      `json:"channelId"`
	Sender      UserPayload `json:"sender"`
	Content     string      `json:"content"`
	Attachments []string    `json:"attachments,omitempty"`
	ThreadID    string      `json:"threadId,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
}

// TypingPayload notifies channel members about a typing change.
type TypingPayload struct {
	User      UserPayload `json:"user"`
	ChannelID string      `json:"channelId"`
	IsTyping  bool        `json:"isTyping"`
}

// UserJoinedPayload announces a new video-room participant.
type UserJoinedPayload struct {
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// ExistingPeersPayload seeds the mesh bootstrap for a joining participant.
type ExistingPeersPayload struct {
	Peers []string `json:"peers"`
}

// UserLeftPayload announces a departed participant.
type UserLeftPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// SignalPayload forwards an opaque negotiation payload tagged with the
// sender's id.
type SignalPayload struct {
	UserID string          `json:"userId"`
	Signal json.RawMessage `json:"signal"`
}

// ScreenSharePayload notifies room members of a share toggle.
type ScreenSharePayload struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	IsSharing bool   `json:"isSharing"`
}

// RoomChatPayload is an in-meeting chat message fanned out to the room.
type RoomChatPayload struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
