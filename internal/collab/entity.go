// Package collab implements the real-time collaboration core: room
// membership, per-room presence, and event fan-out to connected sessions.
package collab

import (
	"fmt"
	"sync"
)

// Entity is a per-session outbound event queue. It bridges the
// broadcaster to whatever transport drains the session (the WebSocket
// write pump in production, a recording fake in tests). Events pushed
// to one Entity are delivered in push order.
type Entity struct {
	sessionID string
	events    chan []byte
	mu        sync.Mutex
	closed    bool
}

// NewEntity creates an Entity for the given session ID.
//
// Precondition: sessionID must be non-empty.
// Postcondition: Returns an Entity with an open events channel.
func NewEntity(sessionID string, bufferSize int) *Entity {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Entity{
		sessionID: sessionID,
		events:    make(chan []byte, bufferSize),
	}
}

// SessionID returns the owning session's connection identifier.
func (e *Entity) SessionID() string {
	return e.sessionID
}

// Push enqueues one encoded event for delivery.
//
// Postcondition: Data is enqueued, or an error if the entity is closed
// or its buffer is full. A full buffer means the client is too slow to
// keep up; the event is dropped for that session only.
func (e *Entity) Push(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("session %s is closed", e.sessionID)
	}
	select {
	case e.events <- data:
		return nil
	default:
		return fmt.Errorf("session %s event buffer full", e.sessionID)
	}
}

// Events returns the read-only events channel.
// The transport write loop reads from this channel.
func (e *Entity) Events() <-chan []byte {
	return e.events
}

// Close marks the entity as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (e *Entity) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// IsClosed reports whether the entity has been closed.
func (e *Entity) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
