package collab

import (
	"encoding/json"
	"time"
)

// EventKind tags an outbound collaboration event.
type EventKind string

// Outbound event kinds.
const (
	EventUserJoined        EventKind = "userJoined"
	EventUserLeft          EventKind = "userLeft"
	EventUserPresence      EventKind = "userPresence"
	EventProjectUpdated    EventKind = "projectUpdated"
	EventImageMoved        EventKind = "imageMoved"
	EventPaletteUpdated    EventKind = "paletteUpdated"
	EventMoodParamsUpdated EventKind = "moodParamsUpdated"
	EventUserTyping        EventKind = "userTyping"
	EventNewMessage        EventKind = "newMessage"
	EventUserDisconnected  EventKind = "userDisconnected"
)

// Event is the outbound envelope delivered to clients. Events are
// ephemeral: constructed, fanned out, and discarded.
type Event struct {
	Kind      EventKind `json:"kind"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an event stamped with the given server time.
func NewEvent(kind EventKind, payload any, at time.Time) Event {
	return Event{Kind: kind, Payload: payload, Timestamp: at}
}

// UserRoomPayload carries a session identifier and the room it joined,
// left, or disconnected from.
type UserRoomPayload struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
}

// PresencePayload mirrors a client's setPresence report.
type PresencePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
}

// ProjectUpdatePayload carries a generic project mutation. UpdateData is
// passed through opaquely; the collaboration layer is advisory and the
// persistence API remains the source of truth.
type ProjectUpdatePayload struct {
	UpdateType string          `json:"updateType"`
	UpdateData json.RawMessage `json:"updateData"`
	UserID     string          `json:"userId"`
}

// ImageMovedPayload carries a mood-board image reposition.
type ImageMovedPayload struct {
	ImageID  string          `json:"imageId"`
	Position json.RawMessage `json:"position"`
	UserID   string          `json:"userId"`
}

// PaletteUpdatedPayload carries a live color palette edit.
type PaletteUpdatedPayload struct {
	PaletteData json.RawMessage `json:"paletteData"`
	UserID      string          `json:"userId"`
}

// MoodParamsUpdatedPayload carries a live mood parameter edit.
type MoodParamsUpdatedPayload struct {
	MoodParams json.RawMessage `json:"moodParams"`
	UserID     string          `json:"userId"`
}

// TypingPayload carries a chat typing indicator.
type TypingPayload struct {
	IsTyping bool   `json:"isTyping"`
	UserID   string `json:"userId"`
}

// MessagePayload carries a chat message. Chat is echoed back to the
// sender so every client renders the same message stream.
type MessagePayload struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// DisconnectPayload identifies a departed session.
type DisconnectPayload struct {
	UserID string `json:"userId"`
}
