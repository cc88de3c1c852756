// Package ws exposes the collaboration gateway over WebSocket. Each
// accepted connection becomes one gateway session with a read pump
// (inbound messages, in arrival order) and a write pump (outbound
// events, FIFO per session).
package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/collab"
	"github.com/aetherforge/aetherforge/internal/config"
)

// Server upgrades HTTP requests to collaboration sessions.
type Server struct {
	cfg      config.WebsocketConfig
	gateway  *collab.Gateway
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a WebSocket server bound to the given gateway.
//
// Precondition: gateway and logger must be non-nil.
func NewServer(cfg config.WebsocketConfig, gateway *collab.Gateway, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		gateway: gateway,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The collaboration channel trusts the client-supplied
			// identity; origin enforcement belongs to the deployment's
			// reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleUpgrade upgrades the request and runs the connection's pumps.
// Identity is read from the userId/username query parameters and trusted
// verbatim; a missing userId falls back to the connection ID.
func (s *Server) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sessionID := uuid.NewString()
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = sessionID
	}
	username := r.URL.Query().Get("username")

	sess := s.gateway.Connect(sessionID, userID, username)

	c := &client{
		conn:    conn,
		sess:    sess,
		gateway: s.gateway,
		cfg:     s.cfg,
		logger:  s.logger,
	}
	go c.writePump()
	go c.readPump()
}

// Handler returns an http.Handler for mounting the upgrade endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.HandleUpgrade)
}
