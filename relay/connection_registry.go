// Package relay holds the presence and routing core: the connection and
// room registries, the presence broadcaster, and the message router.
// Everything here is pure in-memory state; no I/O happens under any lock.
package relay

import (
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

// ConnectionRegistry maps an identity to its live event sink.
// It holds at most one sink per identity: a later Register for the same
// identity overwrites the previous one (last writer wins, no duplicate
// session detection).
type ConnectionRegistry struct {
	mu    sync.RWMutex
	sinks map[domain.Identity]contract.EventSink
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{sinks: make(map[domain.Identity]contract.EventSink)}
}

// Register upserts the sink for an identity. It always succeeds.
func (r *ConnectionRegistry) Register(id domain.Identity, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[id] = sink
}

// Unregister removes the mapping only when the stored sink is the one
// given. This guards against a stale disconnect racing a fresher login
// on a new transport. Returns whether an entry was actually removed.
func (r *ConnectionRegistry) Unregister(id domain.Identity, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sinks[id]; !ok || current != sink {
		return false
	}
	delete(r.sinks, id)
	return true
}

func (r *ConnectionRegistry) Lookup(id domain.Identity) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[id]
	return sink, ok
}

// AllIdentities answers the presence query of the HTTP surface.
func (r *ConnectionRegistry) AllIdentities() []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.Identity, 0, len(r.sinks))
	for id := range r.sinks {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns a copy of the table for broadcast fan-out, so no
// dispatch ever happens while the lock is held.
func (r *ConnectionRegistry) Snapshot() map[domain.Identity]contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.Identity]contract.EventSink, len(r.sinks))
	for id, sink := range r.sinks {
		out[id] = sink
	}
	return out
}
