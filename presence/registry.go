// Package presence tracks which authenticated identities currently hold a
// live connection. Entries are ephemeral: created on connect, destroyed on
// disconnect, never persisted.
package presence

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Event is the unit pushed over a live connection.
type Event struct {
	Type string `json:"event"`
	Data any    `json:"data,omitempty"`
}

const (
	// EventOnlineUsers carries the full online set after every mutation.
	EventOnlineUsers = "getOnlineUsers"
	// EventNewMessage carries one decrypted message for the recipient.
	EventNewMessage = "newMessage"
)

// Sink is one client's live connection handle.
type Sink interface {
	// Deliver pushes an event without blocking the caller indefinitely.
	Deliver(evt Event) error
	// Close releases the connection resources. Idempotent.
	Close()
}

// Registry is the shared identity -> connection table.
// At most one entry exists per identity: a later connect for the same
// identity overwrites the earlier handle, making only the newest
// connection reachable.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]Sink)}
}

// Connect registers the identity's live connection, displacing and closing
// any previous one.
func (r *Registry) Connect(identity string, sink Sink) {
	r.mu.Lock()
	previous := r.sinks[identity]
	r.sinks[identity] = sink
	r.mu.Unlock()

	if previous != nil && previous != sink {
		previous.Close()
	}
}

// Disconnect removes the identity's entry, but only if it still points at
// the given sink. A stale disconnect from a displaced connection must not
// evict the newer one.
func (r *Registry) Disconnect(identity string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sinks[identity]; ok && current == sink {
		delete(r.sinks, identity)
	}
}

// Resolve is the sole read used by the delivery pipeline. It reflects the
// most recent mutation; push is best-effort, so absence simply means the
// recipient is offline.
func (r *Registry) Resolve(identity string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sinks[identity]
	return sink, ok
}

// Online returns the sorted set of currently present identities.
func (r *Registry) Online() []string {
	r.mu.RLock()
	ids := lo.Keys(r.sinks)
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Broadcast delivers the event to every connected party. Delivery happens
// outside the lock; a briefly inconsistent view between two clients is
// acceptable.
func (r *Registry) Broadcast(evt Event) {
	r.mu.RLock()
	sinks := lo.Values(r.sinks)
	r.mu.RUnlock()

	for _, sink := range sinks {
		_ = sink.Deliver(evt)
	}
}

// BroadcastOnline pushes the current online set to everyone connected.
// Called after every connect and disconnect so clients can render
// online/offline indicators.
func (r *Registry) BroadcastOnline() {
	r.Broadcast(Event{Type: EventOnlineUsers, Data: r.Online()})
}
