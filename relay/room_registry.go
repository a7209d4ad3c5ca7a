package relay

import (
	"sync"

	"chat-relay/domain"
)

type memberSet map[domain.Identity]struct{}

// RoomRegistry tracks which identities have joined which conversation.
// Rooms are created lazily on first Join and deleted when the last
// member leaves; an empty room never exists.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomKey]memberSet
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomKey]memberSet)}
}

// Join adds a member to the room, creating the room if absent.
// Joining twice is the same as joining once.
func (r *RoomRegistry) Join(key domain.RoomKey, member domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[key]
	if !ok {
		members = make(memberSet)
		r.rooms[key] = members
	}
	members[member] = struct{}{}
}

// Leave removes a member if present. When the member set becomes empty
// the room entry is removed entirely so stale rooms never accumulate.
func (r *RoomRegistry) Leave(key domain.RoomKey, member domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[key]
	if !ok {
		return
	}
	delete(members, member)
	if len(members) == 0 {
		delete(r.rooms, key)
	}
}

// MembersOf returns the current membership, empty if the room is absent.
func (r *RoomRegistry) MembersOf(key domain.RoomKey) []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[key]
	if !ok {
		return nil
	}
	out := make([]domain.Identity, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	return out
}

func (r *RoomRegistry) Contains(key domain.RoomKey, member domain.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[key]
	if !ok {
		return false
	}
	_, in := members[member]
	return in
}

func (r *RoomRegistry) Exists(key domain.RoomKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[key]
	return ok
}
