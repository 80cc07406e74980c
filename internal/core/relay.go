package core

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/teamhub/relay-server/internal/metrics"
)

// SignalKind distinguishes the two legs of a peer negotiation.
type SignalKind int

const (
	// SignalOffer is the initiator-to-peer leg.
	SignalOffer SignalKind = iota
	// SignalAnswer is the peer-to-initiator reply leg.
	SignalAnswer
)

// Envelope is a one-shot point-to-point message. Signal is an uninterpreted
// blob; the relay never parses it. The envelope exists only for the
// duration of one hop.
type Envelope struct {
	Kind       SignalKind
	SenderID   string
	ReceiverID string
	Signal     json.RawMessage
}

// Relay delivers negotiation envelopes to exactly one target identity. It is
// stateless between legs: pairing offers with answers is the browsers'
// negotiation state machines' job, not the relay's.
type Relay struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewRelay builds a signaling relay over the given registry.
func NewRelay(registry *Registry, logger *zerolog.Logger) *Relay {
	return &Relay{registry: registry, log: logger}
}

// Relay forwards the envelope to the receiver's live connection, tagged with
// the sender's id. Returns false if the receiver is not connected or its
// queue is full; the caller's browser owns timeout and retry of the whole
// negotiation.
func (r *Relay) Relay(env Envelope) bool {
	receiver, ok := r.registry.Lookup(env.ReceiverID)
	if !ok {
		metrics.IncDeliveryMiss()
		r.log.Debug().
			Str("sender_id", env.SenderID).
			Str("receiver_id", env.ReceiverID).
			Msg("signal receiver not connected")
		return false
	}

	var event *Event
	switch env.Kind {
	case SignalAnswer:
		event = ReceivingReturnedSignalEvent(env.SenderID, env.Signal)
	default:
		event = ReceivingSignalEvent(env.SenderID, env.Signal)
	}

	if !receiver.TrySend(event) {
		metrics.IncQueueDrop()
		return false
	}
	metrics.IncDelivery(event.Name)
	return true
}
