package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/teamhub/relay-server/internal/metrics"
	"github.com/teamhub/relay-server/internal/store"
)

// AutoJoinPolicy decides which rooms an identity joins automatically when it
// comes online. Which rooms those are is product policy, not a relay
// concern, so the default is nil (no auto-join).
type AutoJoinPolicy func(identity Identity) []string

// Presence drives the per-identity offline -> online -> offline state
// machine. "Away" and similar states are set by the external profile-update
// path, never here.
type Presence struct {
	status    store.StatusStore
	directory *Directory
	router    *Router
	autoJoin  AutoJoinPolicy
	log       *zerolog.Logger
}

// NewPresence builds the lifecycle manager. autoJoin may be nil.
func NewPresence(status store.StatusStore, directory *Directory, router *Router, autoJoin AutoJoinPolicy, logger *zerolog.Logger) *Presence {
	return &Presence{
		status:    status,
		directory: directory,
		router:    router,
		autoJoin:  autoJoin,
		log:       logger,
	}
}

// Online records the durable online status and applies the auto-join
// policy. The status write is fire-and-forget: a store failure is logged
// and never refuses the connection.
func (p *Presence) Online(ctx context.Context, identity Identity) {
	if err := p.status.SetStatus(ctx, identity.ID, store.StatusOnline); err != nil {
		p.log.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to persist online status")
	}

	if p.autoJoin != nil {
		for _, roomKey := range p.autoJoin(identity) {
			p.directory.Join(roomKey, identity.ID)
		}
		metrics.SetLiveRooms(p.directory.RoomCount())
	}

	p.log.Info().Str("user_id", identity.ID).Str("username", identity.Username).Msg("user online")
}

// Offline records the durable offline status, scrubs the identity from
// every room, and notifies each affected room's remaining members exactly
// once.
func (p *Presence) Offline(ctx context.Context, identity Identity) {
	if err := p.status.SetStatus(ctx, identity.ID, store.StatusOffline); err != nil {
		p.log.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to persist offline status")
	}

	left := UserLeftEvent(identity)
	for _, roomKey := range p.directory.LeaveAll(identity.ID) {
		p.router.Broadcast(roomKey, left, identity.ID)
	}
	metrics.SetLiveRooms(p.directory.RoomCount())

	p.log.Info().Str("user_id", identity.ID).Str("username", identity.Username).Msg("user offline")
}
