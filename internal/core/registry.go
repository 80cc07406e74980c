package core

import "sync"

// Registry tracks live connections keyed by identity id so the signaling
// relay and fan-out router can address them. A connection is owned by
// exactly one registry entry for its lifetime.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Client)}
}

// Register binds an authenticated client, making it addressable by identity
// id. If the identity already has a live connection the new one replaces it
// for addressing purposes; the displaced client keeps draining until its own
// disconnect fires.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[c.Identity.ID] = c
}

// Unregister removes the binding. Idempotent: disconnect may fire after
// cleanup has already run. Returns true only if c was the current binding,
// so a stale connection's teardown cannot scrub state owned by a
// replacement connection.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byUser[c.Identity.ID]
	if !ok || current != c {
		return false
	}
	delete(r.byUser, c.Identity.ID)
	return true
}

// Lookup resolves an identity id to its live connection.
func (r *Registry) Lookup(identityID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[identityID]
	return c, ok
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
