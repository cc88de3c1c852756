package collab

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Transport delivers encoded events to one session.
type Transport interface {
	Push(data []byte) error
}

// TransportDirectory resolves a session ID to its transport. The gateway
// implements this over its live session table; tests substitute a fake
// that records deliveries.
type TransportDirectory interface {
	Transport(sessionID string) (Transport, bool)
}

// Broadcaster fans typed events out to the members of a room. Delivery
// to an individual session may fail (slow client, already disconnected);
// such failures are logged and skipped, never retried, and never abort
// delivery to the remaining members.
type Broadcaster struct {
	registry *Registry
	dir      TransportDirectory
	logger   *zap.Logger
}

// NewBroadcaster creates a Broadcaster over the given membership registry
// and transport directory.
//
// Precondition: registry, dir, and logger must be non-nil.
func NewBroadcaster(registry *Registry, dir TransportDirectory, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		dir:      dir,
		logger:   logger,
	}
}

// BroadcastToRoom encodes evt once and delivers it to every member of
// the room except excludeSession. An empty excludeSession excludes no one.
//
// Postcondition: Each reachable member other than excludeSession has the
// event enqueued in its transport, in broadcast order per recipient.
func (b *Broadcaster) BroadcastToRoom(roomID string, evt Event, excludeSession string) {
	data, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error("marshaling broadcast event",
			zap.String("kind", string(evt.Kind)),
			zap.Error(err),
		)
		return
	}

	for _, sessionID := range b.registry.MembersOf(roomID) {
		if sessionID == excludeSession {
			continue
		}
		transport, ok := b.dir.Transport(sessionID)
		if !ok {
			continue
		}
		if err := transport.Push(data); err != nil {
			b.logger.Warn("push to session failed",
				zap.String("session_id", sessionID),
				zap.String("room", roomID),
				zap.String("kind", string(evt.Kind)),
				zap.Error(err),
			)
		}
	}
}

// EmitToRoom delivers evt to every member of the room, sender included.
// Used for events that must round-trip to the originator, like chat.
func (b *Broadcaster) EmitToRoom(roomID string, evt Event) {
	b.BroadcastToRoom(roomID, evt, "")
}
