package core

import (
	"sort"
	"sync"
)

// Room key namespaces. Channel and thread ids come from the chat data
// store; room ids from the meeting service. The prefix keeps them from
// colliding in one directory.
const (
	channelPrefix = "channel:"
	threadPrefix  = "thread:"
	roomPrefix    = "room:"
)

// ChannelKey returns the directory key for a chat channel.
func ChannelKey(channelID string) string { return channelPrefix + channelID }

// ThreadKey returns the directory key for a thread.
func ThreadKey(threadID string) string { return threadPrefix + threadID }

// RoomKey returns the directory key for a video-call room.
func RoomKey(roomID string) string { return roomPrefix + roomID }

// Directory maps room keys to the identities currently subscribed. It keeps
// a reverse index from identity to room keys so disconnect cleanup does not
// scan every room. Both indices mutate only under one mutex; membership is
// never touched outside Join, Leave and LeaveAll.
//
// Invariant: a room exists if and only if it has at least one member. The
// entry is created on first join and deleted on last leave.
type Directory struct {
	mu     sync.Mutex
	rooms  map[string]map[string]struct{}
	byUser map[string]map[string]struct{}
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms:  make(map[string]map[string]struct{}),
		byUser: make(map[string]map[string]struct{}),
	}
}

// Join subscribes the identity to a room. Idempotent: joining a room the
// identity already belongs to is a no-op. Returns true if membership
// changed.
func (d *Directory) Join(roomKey, identityID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomKey]
	if !ok {
		members = make(map[string]struct{})
		d.rooms[roomKey] = members
	}
	if _, exists := members[identityID]; exists {
		return false
	}
	members[identityID] = struct{}{}

	keys, ok := d.byUser[identityID]
	if !ok {
		keys = make(map[string]struct{})
		d.byUser[identityID] = keys
	}
	keys[roomKey] = struct{}{}
	return true
}

// Leave unsubscribes the identity. Idempotent: leaving a room the identity
// is not in is a no-op. Returns true if membership changed.
func (d *Directory) Leave(roomKey, identityID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leaveLocked(roomKey, identityID)
}

func (d *Directory) leaveLocked(roomKey, identityID string) bool {
	members, ok := d.rooms[roomKey]
	if !ok {
		return false
	}
	if _, exists := members[identityID]; !exists {
		return false
	}
	delete(members, identityID)
	if len(members) == 0 {
		delete(d.rooms, roomKey)
	}

	if keys, ok := d.byUser[identityID]; ok {
		delete(keys, roomKey)
		if len(keys) == 0 {
			delete(d.byUser, identityID)
		}
	}
	return true
}

// MembersOf returns the identity ids currently in the room. The result is a
// copy; callers may not mutate directory state through it.
func (d *Directory) MembersOf(roomKey string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomKey]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Contains reports whether the identity is a member of the room.
func (d *Directory) Contains(roomKey, identityID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	members, ok := d.rooms[roomKey]
	if !ok {
		return false
	}
	_, exists := members[identityID]
	return exists
}

// LeaveAll removes the identity from every room it belongs to and returns
// the keys of rooms that lost a member, each exactly once. Used during
// disconnect cleanup so no ghost participants survive an ungraceful close.
func (d *Directory) LeaveAll(identityID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys, ok := d.byUser[identityID]
	if !ok {
		return nil
	}
	affected := make([]string, 0, len(keys))
	for roomKey := range keys {
		affected = append(affected, roomKey)
	}
	sort.Strings(affected)
	for _, roomKey := range affected {
		d.leaveLocked(roomKey, identityID)
	}
	return affected
}

// RoomCount reports how many rooms currently exist.
func (d *Directory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}
