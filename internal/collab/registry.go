package collab

import "sync"

// Registry tracks which sessions belong to which project rooms, plus the
// reverse index used for disconnect cleanup.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]bool // projectID → set of session IDs
	sessions map[string]map[string]bool // sessionID → set of project IDs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]bool),
		sessions: make(map[string]map[string]bool),
	}
}

// Join adds the session to the room's member set. Joining a room the
// session is already a member of is a no-op.
//
// Precondition: roomID and sessionID must be non-empty.
// Postcondition: MembersOf(roomID) contains sessionID and
// RoomsOf(sessionID) contains roomID.
func (r *Registry) Join(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]bool)
	}
	r.rooms[roomID][sessionID] = true

	if r.sessions[sessionID] == nil {
		r.sessions[sessionID] = make(map[string]bool)
	}
	r.sessions[sessionID][roomID] = true
}

// Leave removes the session from the room's member set. Leaving a room
// the session is not a member of, or an unknown room, is a no-op.
// Emptied room entries are pruned.
//
// Postcondition: MembersOf(roomID) does not contain sessionID.
func (r *Registry) Leave(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[roomID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	if rooms, ok := r.sessions[sessionID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.sessions, sessionID)
		}
	}
}

// MembersOf returns the session IDs currently in the room.
//
// Postcondition: Returns a slice of session IDs (may be empty); unknown
// rooms yield an empty result, never an error.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// RoomsOf returns every room the session currently belongs to.
// Used on disconnect to drive cleanup.
//
// Postcondition: Returns a slice of room IDs (may be empty).
func (r *Registry) RoomsOf(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rooms))
	for id := range rooms {
		out = append(out, id)
	}
	return out
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount returns the number of sessions in the given room.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
