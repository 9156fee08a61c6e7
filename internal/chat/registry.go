package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Registry owns the room membership state: which connections are in which
// room, and which room each connection is in. A connection belongs to at
// most one room; joining a new room leaves the previous one. All access
// goes through the exported methods, nothing else touches the maps.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]struct{}
	conns map[uuid.UUID]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[uuid.UUID]struct{}),
		conns: make(map[uuid.UUID]string),
	}
}

// Join adds the connection to roomID, creating the room lazily. When the
// connection was in a different room it is removed from there first; the
// previous room id is returned so the caller can rebroadcast its presence.
// Joining the current room again is a no-op.
func (r *Registry) Join(connID uuid.UUID, roomID string) (prev string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev = r.conns[connID]
	if prev == roomID {
		return ""
	}
	if prev != "" {
		r.removeLocked(connID, prev)
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		r.rooms[roomID] = members
	}
	members[connID] = struct{}{}
	r.conns[connID] = roomID

	return prev
}

// Leave removes the connection from its current room and returns that
// room's id. It is a no-op returning "" when the connection has no room.
func (r *Registry) Leave(connID uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID := r.conns[connID]
	if roomID == "" {
		return ""
	}

	r.removeLocked(connID, roomID)
	return roomID
}

// removeLocked drops connID from roomID's member set, deleting the room
// entry once empty. Caller holds the write lock.
func (r *Registry) removeLocked(connID uuid.UUID, roomID string) {
	if members, ok := r.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.conns, connID)
}

// MembersOf returns the connections currently in the room. Unknown rooms
// yield an empty slice, never an error.
func (r *Registry) MembersOf(roomID string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	out := make([]uuid.UUID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomID])
}

// Room reports the connection's current room, if any.
func (r *Registry) Room(connID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.conns[connID]
	return roomID, ok && roomID != ""
}
