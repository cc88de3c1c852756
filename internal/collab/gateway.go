package collab

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Inbound message kinds accepted by the gateway.
const (
	kindJoinProject      = "joinProject"
	kindLeaveProject     = "leaveProject"
	kindSetPresence      = "setPresence"
	kindUpdateProject    = "updateProject"
	kindMoveImage        = "moveImage"
	kindUpdatePalette    = "updatePalette"
	kindUpdateMoodParams = "updateMoodParams"
	kindTyping           = "typing"
	kindSendMessage      = "sendMessage"
)

// InboundMessage is the envelope for client-originated messages. Fields
// beyond Kind and ProjectID are populated per kind; the gateway validates
// the ones each kind requires and drops the message otherwise.
type InboundMessage struct {
	Kind        string          `json:"kind"`
	ProjectID   string          `json:"projectId"`
	UserID      string          `json:"userId"`
	Username    string          `json:"username"`
	IsOnline    *bool           `json:"isOnline,omitempty"`
	UpdateType  string          `json:"updateType,omitempty"`
	UpdateData  json.RawMessage `json:"updateData,omitempty"`
	ImageID     string          `json:"imageId,omitempty"`
	Position    json.RawMessage `json:"position,omitempty"`
	PaletteData json.RawMessage `json:"paletteData,omitempty"`
	MoodParams  json.RawMessage `json:"moodParams,omitempty"`
	IsTyping    *bool           `json:"isTyping,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// Session is one live client connection. A user may hold several
// sessions at once; sessions are identified by connection ID, not user.
type Session struct {
	// ID is the opaque connection identifier, unique per connection.
	ID string
	// UserID is the identity presented at connect time. Trusted
	// verbatim; the collaboration layer performs no verification.
	UserID string
	// Username is the display name presented at connect time.
	Username string

	entity *Entity
}

// Events exposes the session's outbound queue for the transport's write loop.
func (s *Session) Events() <-chan []byte {
	return s.entity.Events()
}

// Gateway owns connection lifecycle and inbound-message dispatch. It
// binds sessions to rooms in the Registry, records presence reports in
// the Tracker, and fans events out through the Broadcaster.
type Gateway struct {
	registry    *Registry
	presence    *Tracker
	broadcaster *Broadcaster
	logger      *zap.Logger
	now         func() time.Time
	sendBuffer  int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewGateway creates a Gateway over the given registry and presence
// tracker. A nil clock defaults to time.Now; sendBuffer <= 0 uses the
// Entity default.
//
// Precondition: registry, presence, and logger must be non-nil.
func NewGateway(registry *Registry, presence *Tracker, logger *zap.Logger, sendBuffer int, now func() time.Time) *Gateway {
	if now == nil {
		now = time.Now
	}
	g := &Gateway{
		registry:   registry,
		presence:   presence,
		logger:     logger,
		now:        now,
		sendBuffer: sendBuffer,
		sessions:   make(map[string]*Session),
	}
	g.broadcaster = NewBroadcaster(registry, g, logger)
	return g
}

// Transport implements TransportDirectory over the live session table.
func (g *Gateway) Transport(sessionID string) (Transport, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sess, ok := g.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sess.entity, true
}

// Connect registers a new session under the given connection ID and
// presented identity.
//
// Precondition: sessionID must be non-empty and not already connected.
// Postcondition: Returns the created Session, member of no rooms.
func (g *Gateway) Connect(sessionID, userID, username string) *Session {
	sess := &Session{
		ID:       sessionID,
		UserID:   userID,
		Username: username,
		entity:   NewEntity(sessionID, g.sendBuffer),
	}

	g.mu.Lock()
	g.sessions[sessionID] = sess
	g.mu.Unlock()

	g.logger.Info("session connected",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
	)
	return sess
}

// SessionCount returns the number of live sessions.
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// HandleMessage dispatches one inbound message from the given session.
// Malformed messages (bad JSON, unknown kind, missing required fields)
// are dropped with a log entry; nothing is echoed to the sender and no
// error is surfaced to the transport.
func (g *Gateway) HandleMessage(sessionID string, raw []byte) {
	g.mu.RLock()
	sess, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if !ok {
		g.logger.Warn("message from unknown session", zap.String("session_id", sessionID))
		return
	}

	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.logger.Warn("dropping malformed message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}
	if msg.ProjectID == "" {
		g.logger.Warn("dropping message without project id",
			zap.String("session_id", sessionID),
			zap.String("kind", msg.Kind),
		)
		return
	}

	switch msg.Kind {
	case kindJoinProject:
		g.handleJoin(sess, msg)
	case kindLeaveProject:
		g.handleLeave(sess, msg)
	case kindSetPresence:
		g.handleSetPresence(sess, msg)
	case kindUpdateProject:
		g.handleUpdateProject(sess, msg)
	case kindMoveImage:
		g.handleMoveImage(sess, msg)
	case kindUpdatePalette:
		g.handleUpdatePalette(sess, msg)
	case kindUpdateMoodParams:
		g.handleUpdateMoodParams(sess, msg)
	case kindTyping:
		g.handleTyping(sess, msg)
	case kindSendMessage:
		g.handleSendMessage(sess, msg)
	default:
		g.logger.Warn("dropping message of unknown kind",
			zap.String("session_id", sessionID),
			zap.String("kind", msg.Kind),
		)
	}
}

// Disconnect removes the session from every room it belongs to and
// notifies each of those rooms. Calling Disconnect for an unknown or
// already-disconnected session is a no-op, so transport teardown paths
// may call it more than once.
func (g *Gateway) Disconnect(sessionID string) {
	g.mu.Lock()
	sess, ok := g.sessions[sessionID]
	if ok {
		delete(g.sessions, sessionID)
	}
	g.mu.Unlock()
	if !ok {
		return
	}

	rooms := g.registry.RoomsOf(sessionID)
	for _, roomID := range rooms {
		g.registry.Leave(roomID, sessionID)
		if sess.UserID != "" {
			g.presence.MarkOffline(roomID, sess.UserID)
		}
		g.broadcaster.BroadcastToRoom(roomID,
			NewEvent(EventUserDisconnected, DisconnectPayload{UserID: sessionID}, g.now()),
			sessionID,
		)
	}

	_ = sess.entity.Close()

	g.logger.Info("session disconnected",
		zap.String("session_id", sessionID),
		zap.String("user_id", sess.UserID),
		zap.Int("rooms", len(rooms)),
	)
}

func (g *Gateway) handleJoin(sess *Session, msg InboundMessage) {
	g.registry.Join(msg.ProjectID, sess.ID)
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventUserJoined, UserRoomPayload{UserID: sess.ID, ProjectID: msg.ProjectID}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleLeave(sess *Session, msg InboundMessage) {
	g.registry.Leave(msg.ProjectID, sess.ID)
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventUserLeft, UserRoomPayload{UserID: sess.ID, ProjectID: msg.ProjectID}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleSetPresence(sess *Session, msg InboundMessage) {
	if msg.UserID == "" || msg.Username == "" || msg.IsOnline == nil {
		g.dropIncomplete(sess, msg)
		return
	}
	g.presence.Set(msg.ProjectID, msg.UserID, msg.Username, *msg.IsOnline)
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventUserPresence, PresencePayload{
			UserID:   msg.UserID,
			Username: msg.Username,
			IsOnline: *msg.IsOnline,
		}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleUpdateProject(sess *Session, msg InboundMessage) {
	if msg.UpdateType == "" || msg.UpdateData == nil || msg.UserID == "" {
		g.dropIncomplete(sess, msg)
		return
	}
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventProjectUpdated, ProjectUpdatePayload{
			UpdateType: msg.UpdateType,
			UpdateData: msg.UpdateData,
			UserID:     msg.UserID,
		}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleMoveImage(sess *Session, msg InboundMessage) {
	if msg.ImageID == "" || msg.Position == nil || msg.UserID == "" {
		g.dropIncomplete(sess, msg)
		return
	}
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventImageMoved, ImageMovedPayload{
			ImageID:  msg.ImageID,
			Position: msg.Position,
			UserID:   msg.UserID,
		}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleUpdatePalette(sess *Session, msg InboundMessage) {
	if msg.PaletteData == nil || msg.UserID == "" {
		g.dropIncomplete(sess, msg)
		return
	}
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventPaletteUpdated, PaletteUpdatedPayload{
			PaletteData: msg.PaletteData,
			UserID:      msg.UserID,
		}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleUpdateMoodParams(sess *Session, msg InboundMessage) {
	if msg.MoodParams == nil || msg.UserID == "" {
		g.dropIncomplete(sess, msg)
		return
	}
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventMoodParamsUpdated, MoodParamsUpdatedPayload{
			MoodParams: msg.MoodParams,
			UserID:     msg.UserID,
		}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleTyping(sess *Session, msg InboundMessage) {
	if msg.IsTyping == nil || msg.UserID == "" {
		g.dropIncomplete(sess, msg)
		return
	}
	g.broadcaster.BroadcastToRoom(msg.ProjectID,
		NewEvent(EventUserTyping, TypingPayload{
			IsTyping: *msg.IsTyping,
			UserID:   msg.UserID,
		}, g.now()),
		sess.ID,
	)
}

func (g *Gateway) handleSendMessage(sess *Session, msg InboundMessage) {
	if msg.Message == "" || msg.UserID == "" || msg.Username == "" {
		g.dropIncomplete(sess, msg)
		return
	}
	g.broadcaster.EmitToRoom(msg.ProjectID,
		NewEvent(EventNewMessage, MessagePayload{
			Message:  msg.Message,
			UserID:   msg.UserID,
			Username: msg.Username,
		}, g.now()),
	)
}

func (g *Gateway) dropIncomplete(sess *Session, msg InboundMessage) {
	g.logger.Warn("dropping message with missing fields",
		zap.String("session_id", sess.ID),
		zap.String("kind", msg.Kind),
		zap.String("project_id", msg.ProjectID),
	)
}
