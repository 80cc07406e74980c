package core

import (
	"github.com/rs/zerolog"

	"github.com/teamhub/relay-server/internal/metrics"
)

// Router fans an event out to every live connection subscribed to a room.
// Delivery is fire-and-forget: no acknowledgment, no retry. Enqueues are
// non-blocking per recipient, so one slow client cannot stall the rest of
// the room.
type Router struct {
	directory *Directory
	registry  *Registry
	log       *zerolog.Logger
}

// NewRouter builds a fan-out router over the given directory and registry.
func NewRouter(directory *Directory, registry *Registry, logger *zerolog.Logger) *Router {
	return &Router{directory: directory, registry: registry, log: logger}
}

// Broadcast delivers the event to every member of the room except
// excludeID (pass "" to include everyone). A member with no live connection
// is a cleanup race, not an error; it is skipped silently. Returns the
// number of queues the event reached.
func (rt *Router) Broadcast(roomKey string, event *Event, excludeID string) int {
	delivered := 0
	for _, memberID := range rt.directory.MembersOf(roomKey) {
		if memberID == excludeID {
			continue
		}
		client, ok := rt.registry.Lookup(memberID)
		if !ok {
			metrics.IncDeliveryMiss()
			continue
		}
		if !client.TrySend(event) {
			metrics.IncQueueDrop()
			rt.log.Debug().
				Str("room", roomKey).
				Str("user_id", memberID).
				Str("event", event.Name).
				Msg("dropped event on full queue")
			continue
		}
		metrics.IncDelivery(event.Name)
		delivered++
	}
	return delivered
}
