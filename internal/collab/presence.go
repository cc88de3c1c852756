package collab

import (
	"sync"
	"time"
)

// PresenceEntry is the last-reported status of a user within a room.
type PresenceEntry struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

// Tracker records per-room online status and display name per user.
// Entries are whatever clients last reported; the tracker does not
// verify them against socket liveness, except that the gateway marks
// users offline when their session disconnects.
// All methods are safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]PresenceEntry // roomID → userID → entry
	now   func() time.Time
}

// NewTracker creates an empty Tracker. A nil clock defaults to time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		rooms: make(map[string]map[string]PresenceEntry),
		now:   now,
	}
}

// Set upserts the presence entry for (roomID, userID). Later updates
// replace earlier ones wholesale; there is no merge logic.
//
// Precondition: roomID and userID must be non-empty.
func (t *Tracker) Set(roomID, userID, username string, online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rooms[roomID] == nil {
		t.rooms[roomID] = make(map[string]PresenceEntry)
	}
	t.rooms[roomID][userID] = PresenceEntry{
		UserID:   userID,
		Username: username,
		IsOnline: online,
		LastSeen: t.now(),
	}
}

// MarkOffline flips the entry for (roomID, userID) to offline, keeping
// the recorded username. Unknown entries are a no-op: a user who never
// reported presence has nothing to flip.
func (t *Tracker) MarkOffline(roomID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.rooms[roomID]
	if !ok {
		return
	}
	entry, ok := users[userID]
	if !ok {
		return
	}
	entry.IsOnline = false
	entry.LastSeen = t.now()
	users[userID] = entry
}

// RoomPresence returns the latest presence entries for a room.
//
// Postcondition: Returns a slice of entries (may be empty); order is
// unspecified.
func (t *Tracker) RoomPresence(roomID string) []PresenceEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users, ok := t.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]PresenceEntry, 0, len(users))
	for _, entry := range users {
		out = append(out, entry)
	}
	return out
}

// Get returns the presence entry for (roomID, userID).
//
// Postcondition: Returns (entry, true) if found, or (zero, false) otherwise.
func (t *Tracker) Get(roomID, userID string) (PresenceEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users, ok := t.rooms[roomID]
	if !ok {
		return PresenceEntry{}, false
	}
	entry, ok := users[userID]
	return entry, ok
}
