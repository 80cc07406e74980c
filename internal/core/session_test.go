package core

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/teamhub/relay-server/internal/proto"
)

func TestJoinRoomBootstrap(t *testing.T) {
	h := newHarness()
	q, qs := h.connect(t, "q", "quinn")
	s, ss := h.connect(t, "s", "sam")
	p, ps := h.connect(t, "p", "pat")

	qs.JoinRoom("42")
	ss.JoinRoom("42")
	// drain the join chatter between q and s
	mustEvent(t, q, proto.EventUserJoined)

	ps.JoinRoom("42")

	peers := mustEvent(t, p, proto.EventExistingPeers).Data.(proto.ExistingPeersPayload)
	if !reflect.DeepEqual(peers.Peers, []string{"q", "s"}) {
		t.Fatalf("joiner should see existing peers minus itself, got %v", peers.Peers)
	}

	for _, c := range []*Client{q, s} {
		ev := mustEvent(t, c, proto.EventUserJoined)
		joined := ev.Data.(proto.UserJoinedPayload)
		if joined.UserID != "p" || joined.Username != "pat" {
			t.Fatalf("unexpected user-joined payload: %+v", joined)
		}
	}
}

func TestJoinRoomFirstParticipantSeesNoPeers(t *testing.T) {
	h := newHarness()
	p, ps := h.connect(t, "p", "pat")

	ps.JoinRoom("42")

	peers := mustEvent(t, p, proto.EventExistingPeers).Data.(proto.ExistingPeersPayload)
	if len(peers.Peers) != 0 {
		t.Fatalf("first participant should get an empty peer list, got %v", peers.Peers)
	}
}

func TestLeaveRoomNotifiesRemaining(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")

	as.JoinRoom("42")
	bs.JoinRoom("42")
	mustEvent(t, a, proto.EventUserJoined)
	mustEvent(t, b, proto.EventExistingPeers)

	bs.LeaveRoom("42")

	left := mustEvent(t, a, proto.EventUserLeft).Data.(proto.UserLeftPayload)
	if left.UserID != "b" || left.Username != "bob" {
		t.Fatalf("unexpected user-left payload: %+v", left)
	}
	noEvent(t, b)
}

func TestScreenShareStopsReachingFormerMember(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")

	as.JoinRoom("42")
	bs.JoinRoom("42")
	mustEvent(t, a, proto.EventUserJoined)
	mustEvent(t, b, proto.EventExistingPeers)

	as.StartScreenShare("42")
	share := mustEvent(t, b, proto.EventUserScreenShare).Data.(proto.ScreenSharePayload)
	if !share.IsSharing || share.UserID != "a" {
		t.Fatalf("unexpected screen-share payload: %+v", share)
	}

	bs.LeaveRoom("42")
	mustEvent(t, a, proto.EventUserLeft)

	as.StartScreenShare("42")
	noEvent(t, b)
}

func TestSendMessageFansOutToChannelAndThread(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")
	c, cs := h.connect(t, "c", "carol")

	as.JoinChannel("general")
	bs.JoinChannel("general")
	cs.JoinThread("t1")

	as.SendMessage(context.Background(), proto.SendMessageData{
		ChannelID: "general",
		Content:   "hello",
		ThreadID:  "t1",
	})

	// channel fan-out includes the sender, matching the persisted-message
	// echo clients rely on.
	for _, cl := range []*Client{a, b} {
		msg := mustEvent(t, cl, proto.EventNewMessage).Data.(proto.MessagePayload)
		if msg.Content != "hello" || msg.Sender.ID != "a" {
			t.Fatalf("unexpected new-message payload: %+v", msg)
		}
	}

	threadMsg := mustEvent(t, c, proto.EventNewThreadMessage).Data.(proto.MessagePayload)
	if threadMsg.ThreadID != "t1" {
		t.Fatalf("thread fan-out should carry the thread id, got %+v", threadMsg)
	}

	if len(h.messages.created) != 1 {
		t.Fatalf("message should be persisted exactly once")
	}
}

func TestSendMessagePersistenceFailureSuppressesBroadcast(t *testing.T) {
	h := newHarness()
	h.messages.err = errors.New("db down")

	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")
	as.JoinChannel("general")
	bs.JoinChannel("general")

	as.SendMessage(context.Background(), proto.SendMessageData{ChannelID: "general", Content: "hello"})

	ev := mustEvent(t, a, proto.EventError)
	if ev.Err == nil || ev.Err.Code != ErrCodePersistenceFailed {
		t.Fatalf("sender should see a persistence failure, got %+v", ev)
	}
	noEvent(t, b)
}

func TestTypingExcludesSender(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")
	as.JoinChannel("general")
	bs.JoinChannel("general")

	as.Typing(proto.TypingData{ChannelID: "general", IsTyping: true})

	typing := mustEvent(t, b, proto.EventTyping).Data.(proto.TypingPayload)
	if typing.User.ID != "a" || !typing.IsTyping || typing.ChannelID != "general" {
		t.Fatalf("unexpected typing payload: %+v", typing)
	}
	noEvent(t, a)
}

func TestSignalingThroughSessions(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, _ := h.connect(t, "b", "bob")

	signal := json.RawMessage(`{"sdp":"offer"}`)
	as.SendingSignal(proto.SignalData{ReceiverID: "b", SenderID: "a", Signal: signal})

	ev := mustEvent(t, b, proto.EventReceivingSignal).Data.(proto.SignalPayload)
	if ev.UserID != "a" {
		t.Fatalf("signal must be tagged with the authenticated sender, got %q", ev.UserID)
	}
	noEvent(t, a)
}

func TestSignalSenderTagIgnoresSpoofedPayload(t *testing.T) {
	h := newHarness()
	_, as := h.connect(t, "a", "alice")
	b, _ := h.connect(t, "b", "bob")

	// The payload claims to be from "mallory"; the relay trusts only the
	// authenticated identity.
	as.SendingSignal(proto.SignalData{ReceiverID: "b", SenderID: "mallory", Signal: json.RawMessage(`{}`)})

	ev := mustEvent(t, b, proto.EventReceivingSignal).Data.(proto.SignalPayload)
	if ev.UserID != "a" {
		t.Fatalf("spoofed sender id must not survive the relay, got %q", ev.UserID)
	}
}

func TestSendChatMessageExcludesSender(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")
	as.JoinRoom("42")
	bs.JoinRoom("42")
	mustEvent(t, a, proto.EventUserJoined)

	as.SendChatMessage(proto.RoomChatData{RoomID: "42", Message: "hi", Timestamp: 99})

	chat := mustEvent(t, b, proto.EventChatMessage).Data.(proto.RoomChatPayload)
	if chat.UserID != "a" || chat.Message != "hi" || chat.Timestamp != 99 {
		t.Fatalf("unexpected chat payload: %+v", chat)
	}
	noEvent(t, a)
}

func TestSessionCloseRunsDisconnectCleanupOnce(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")
	b, bs := h.connect(t, "b", "bob")
	as.JoinRoom("42")
	bs.JoinRoom("42")
	mustEvent(t, a, proto.EventUserJoined)

	as.Close(context.Background())
	as.Close(context.Background()) // disconnect may fire twice

	left := mustEvent(t, b, proto.EventUserLeft).Data.(proto.UserLeftPayload)
	if left.UserID != "a" {
		t.Fatalf("remaining member should learn about the disconnect")
	}
	noEvent(t, b)

	if h.directory.Contains(RoomKey("42"), "a") {
		t.Fatalf("disconnect must scrub room membership")
	}
	if _, ok := h.registry.Lookup("a"); ok {
		t.Fatalf("disconnect must unregister the connection")
	}

	offlines := 0
	for _, s := range h.status.history("a") {
		if s == "offline" {
			offlines++
		}
	}
	if offlines != 1 {
		t.Fatalf("offline transition must run exactly once, ran %d times", offlines)
	}
}

func TestStaleConnectionCloseKeepsReplacementState(t *testing.T) {
	h := newHarness()
	stale, staleSession := h.connect(t, "a", "alice")
	_, replacementSession := h.connect(t, "a", "alice")

	replacementSession.JoinRoom("42")

	// The displaced connection's teardown fires late; the replacement's
	// registration and membership must survive.
	staleSession.Close(context.Background())

	if !h.directory.Contains(RoomKey("42"), "a") {
		t.Fatalf("stale teardown must not scrub the replacement's rooms")
	}
	if _, ok := h.registry.Lookup("a"); !ok {
		t.Fatalf("stale teardown must not unregister the replacement")
	}
	_ = stale
}

func TestJoinChannelValidation(t *testing.T) {
	h := newHarness()
	a, as := h.connect(t, "a", "alice")

	as.JoinChannel("")

	ev := mustEvent(t, a, proto.EventError)
	if ev.Err == nil || ev.Err.Code != ErrCodeBadRequest {
		t.Fatalf("empty channel id should be rejected, got %+v", ev)
	}
}
