package store

import (
	"context"
	"time"
)

// Status is a user's durable presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Message is a persisted channel message.
type Message struct {
	ID          string
	ChannelID   string
	SenderID    string
	Content     string
	Attachments []string
	ThreadID    string // empty when not a thread reply
	CreatedAt   time.Time
}

// NewMessage is the input for message creation.
type NewMessage struct {
	ChannelID   string
	SenderID    string
	Content     string
	Attachments []string
	ThreadID    string
}

// StatusStore persists user presence transitions.
type StatusStore interface {
	// SetStatus records the user's online/offline state.
	SetStatus(ctx context.Context, userID string, status Status) error
}

// MessageStore persists channel messages before they are broadcast.
type MessageStore interface {
	// CreateMessage stores a message and returns it with id and timestamp set.
	CreateMessage(ctx context.Context, msg NewMessage) (*Message, error)
}

// Store aggregates the collaborators the relay depends on.
type Store interface {
	StatusStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
