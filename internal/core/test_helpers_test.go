package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamhub/relay-server/internal/store"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func mustEvent(t *testing.T, c *Client, name string) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				t.Fatalf("event queue closed while waiting for %q", name)
			}
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event %q not received", name)
		}
	}
}

// noEvent asserts the client's queue is empty. All fan-out in the core is
// synchronous, so anything due has already been enqueued.
func noEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event %q", ev.Name)
	default:
	}
}

type fakeStatusStore struct {
	mu       sync.Mutex
	err      error
	statuses map[string][]store.Status
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{statuses: make(map[string][]store.Status)}
}

func (f *fakeStatusStore) SetStatus(_ context.Context, userID string, status store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statuses[userID] = append(f.statuses[userID], status)
	return nil
}

func (f *fakeStatusStore) history(userID string) []store.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Status(nil), f.statuses[userID]...)
}

type fakeMessageStore struct {
	err     error
	created []store.NewMessage
}

func (f *fakeMessageStore) CreateMessage(_ context.Context, msg store.NewMessage) (*store.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, msg)
	return &store.Message{
		ID:          "m1",
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		Attachments: msg.Attachments,
		ThreadID:    msg.ThreadID,
		CreatedAt:   time.Now(),
	}, nil
}

// relayHarness bundles the full component stack over fake stores.
type relayHarness struct {
	registry  *Registry
	directory *Directory
	router    *Router
	relay     *Relay
	presence  *Presence
	status    *fakeStatusStore
	messages  *fakeMessageStore
}

func newHarness() *relayHarness {
	logger := nopLogger()
	registry := NewRegistry()
	directory := NewDirectory()
	router := NewRouter(directory, registry, logger)
	status := newFakeStatusStore()
	return &relayHarness{
		registry:  registry,
		directory: directory,
		router:    router,
		relay:     NewRelay(registry, logger),
		presence:  NewPresence(status, directory, router, nil, logger),
		status:    status,
		messages:  &fakeMessageStore{},
	}
}

func (h *relayHarness) connect(t *testing.T, id, name string) (*Client, *Session) {
	t.Helper()

	client := NewClient("conn-"+id, Identity{ID: id, Username: name}, 0)
	session := NewSession(client, h.registry, h.directory, h.router, h.relay, h.presence, h.messages, nopLogger())
	session.Start(context.Background())
	return client, session
}
