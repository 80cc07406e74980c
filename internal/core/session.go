package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/teamhub/relay-server/internal/metrics"
	"github.com/teamhub/relay-server/internal/proto"
	"github.com/teamhub/relay-server/internal/store"
)

// Session binds one authenticated connection to the relay components. The
// connection's read loop is the only caller of its command methods, so a
// session is single-threaded; all shared state lives behind the registry
// and directory locks.
type Session struct {
	client    *Client
	registry  *Registry
	directory *Directory
	router    *Router
	relay     *Relay
	presence  *Presence
	messages  store.MessageStore
	log       *zerolog.Logger
}

// NewSession wires a client into the relay.
func NewSession(
	client *Client,
	registry *Registry,
	directory *Directory,
	router *Router,
	relay *Relay,
	presence *Presence,
	messages store.MessageStore,
	logger *zerolog.Logger,
) *Session {
	return &Session{
		client:    client,
		registry:  registry,
		directory: directory,
		router:    router,
		relay:     relay,
		presence:  presence,
		messages:  messages,
		log:       logger,
	}
}

// Client returns the session's connection.
func (s *Session) Client() *Client {
	return s.client
}

// Start registers the connection and flips the identity online.
func (s *Session) Start(ctx context.Context) {
	s.registry.Register(s.client)
	s.presence.Online(ctx, s.client.Identity)
	metrics.ConnOpened()
}

// Close tears the connection down: unregister, offline transition with full
// membership scrub, and queue shutdown. Idempotent, and a stale connection
// replaced by a reconnect only closes its own queue; the replacement's
// registration and room state are left untouched.
func (s *Session) Close(ctx context.Context) {
	if s.registry.Unregister(s.client) {
		s.presence.Offline(ctx, s.client.Identity)
		metrics.ConnClosed()
	}
	s.client.Close()
}

func (s *Session) fail(code, msg string) {
	if !s.client.TrySend(ErrorEvent(coreError(code, msg))) {
		metrics.IncQueueDrop()
	}
}

// JoinChannel subscribes the connection to a chat channel's fan-out.
func (s *Session) JoinChannel(channelID string) {
	if channelID == "" {
		s.fail(ErrCodeBadRequest, "channelId is required")
		return
	}
	s.directory.Join(ChannelKey(channelID), s.client.Identity.ID)
	metrics.SetLiveRooms(s.directory.RoomCount())
}

// LeaveChannel unsubscribes the connection from a chat channel.
func (s *Session) LeaveChannel(channelID string) {
	if channelID == "" {
		s.fail(ErrCodeBadRequest, "channelId is required")
		return
	}
	s.directory.Leave(ChannelKey(channelID), s.client.Identity.ID)
	metrics.SetLiveRooms(s.directory.RoomCount())
}

// JoinThread subscribes the connection to a thread's fan-out.
func (s *Session) JoinThread(threadID string) {
	if threadID == "" {
		s.fail(ErrCodeBadRequest, "threadId is required")
		return
	}
	s.directory.Join(ThreadKey(threadID), s.client.Identity.ID)
	metrics.SetLiveRooms(s.directory.RoomCount())
}

// LeaveThread unsubscribes the connection from a thread.
func (s *Session) LeaveThread(threadID string) {
	if threadID == "" {
		s.fail(ErrCodeBadRequest, "threadId is required")
		return
	}
	s.directory.Leave(ThreadKey(threadID), s.client.Identity.ID)
	metrics.SetLiveRooms(s.directory.RoomCount())
}

// JoinRoom enters a video-call room. The joiner receives the current member
// list (minus itself) to seed one negotiation per existing peer; everyone
// already in the room learns about the joiner.
func (s *Session) JoinRoom(roomID string) {
	if roomID == "" {
		s.fail(ErrCodeBadRequest, "roomId is required")
		return
	}
	key := RoomKey(roomID)
	peers := s.directory.MembersOf(key)
	if !s.directory.Join(key, s.client.Identity.ID) {
		// Already a member; re-send the peer list so a re-joining client
		// can rebuild its mesh, but do not announce it twice.
		peers = without(peers, s.client.Identity.ID)
		s.client.TrySend(ExistingPeersEvent(peers))
		return
	}
	metrics.SetLiveRooms(s.directory.RoomCount())

	s.client.TrySend(ExistingPeersEvent(peers))
	s.router.Broadcast(key, UserJoinedEvent(s.client.Identity), s.client.Identity.ID)
}

// LeaveRoom exits a video-call room and notifies the remaining members.
func (s *Session) LeaveRoom(roomID string) {
	if roomID == "" {
		s.fail(ErrCodeBadRequest, "roomId is required")
		return
	}
	key := RoomKey(roomID)
	if !s.directory.Leave(key, s.client.Identity.ID) {
		return
	}
	metrics.SetLiveRooms(s.directory.RoomCount())
	s.router.Broadcast(key, UserLeftEvent(s.client.Identity), s.client.Identity.ID)
}

// SendMessage persists a channel message and fans it out. The broadcast is
// suppressed when persistence fails; only the sender learns about the
// failure so its UI can retry.
func (s *Session) SendMessage(ctx context.Context, data proto.SendMessageData) {
	if data.ChannelID == "" || data.Content == "" {
		s.fail(ErrCodeBadRequest, "channelId and content are required")
		return
	}

	msg, err := s.messages.CreateMessage(ctx, store.NewMessage{
		ChannelID:   data.ChannelID,
		SenderID:    s.client.Identity.ID,
		Content:     data.Content,
		Attachments: data.Attachments,
		ThreadID:    data.ThreadID,
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("user_id", s.client.Identity.ID).
			Str("channel_id", data.ChannelID).
			Msg("message persistence failed")
		s.fail(ErrCodePersistenceFailed, "message could not be saved")
		return
	}

	s.router.Broadcast(ChannelKey(data.ChannelID), NewMessageEvent(msg, s.client.Identity), "")
	if data.ThreadID != "" {
		s.router.Broadcast(ThreadKey(data.ThreadID), NewThreadMessageEvent(msg, s.client.Identity), "")
	}
}

// Typing relays a typing indicator to the channel, excluding the sender.
// Best effort: the sender gets no acknowledgment and no error.
func (s *Session) Typing(data proto.TypingData) {
	if data.ChannelID == "" {
		return
	}
	s.router.Broadcast(ChannelKey(data.ChannelID), TypingEvent(s.client.Identity, data.ChannelID, data.IsTyping), s.client.Identity.ID)
}

// SendingSignal relays an offer-leg negotiation payload to one peer. The
// sender tag comes from the authenticated identity, never from the payload.
func (s *Session) SendingSignal(data proto.SignalData) {
	s.relay.Relay(Envelope{
		Kind:       SignalOffer,
		SenderID:   s.client.Identity.ID,
		ReceiverID: data.ReceiverID,
		Signal:     data.Signal,
	})
}

// ReturningSignal relays the answer leg back to the negotiation initiator.
func (s *Session) ReturningSignal(data proto.SignalData) {
	s.relay.Relay(Envelope{
		Kind:       SignalAnswer,
		SenderID:   s.client.Identity.ID,
		ReceiverID: data.ReceiverID,
		Signal:     data.Signal,
	})
}

// StartScreenShare announces a share start to the room.
func (s *Session) StartScreenShare(roomID string) {
	s.screenShare(roomID, true)
}

// StopScreenShare announces a share stop to the room.
func (s *Session) StopScreenShare(roomID string) {
	s.screenShare(roomID, false)
}

func (s *Session) screenShare(roomID string, sharing bool) {
	if roomID == "" {
		return
	}
	s.router.Broadcast(RoomKey(roomID), UserScreenShareEvent(s.client.Identity, sharing), s.client.Identity.ID)
}

// SendChatMessage fans an in-meeting chat message out to the room. These
// messages are transient; nothing is persisted.
func (s *Session) SendChatMessage(data proto.RoomChatData) {
	if data.RoomID == "" {
		return
	}
	s.router.Broadcast(RoomKey(data.RoomID), RoomChatEvent(s.client.Identity, data.Message, data.Timestamp), s.client.Identity.ID)
}

func without(ids []string, exclude string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
