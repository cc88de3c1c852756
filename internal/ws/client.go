package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/collab"
	"github.com/aetherforge/aetherforge/internal/config"
)

// client runs the two pumps for one WebSocket connection. Separating
// read and write keeps a slow browser from blocking broadcasts to it
// from the rest of the room.
type client struct {
	conn    *websocket.Conn
	sess    *collab.Session
	gateway *collab.Gateway
	cfg     config.WebsocketConfig
	logger  *zap.Logger
}

// readPump feeds inbound frames to the gateway in arrival order.
// On any read error the session is disconnected; Disconnect is
// idempotent so racing with writePump teardown is harmless.
func (c *client) readPump() {
	defer func() {
		c.gateway.Disconnect(c.sess.ID)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed",
					zap.String("session_id", c.sess.ID),
					zap.Error(err),
				)
			}
			return
		}
		c.gateway.HandleMessage(c.sess.ID, message)
	}
}

// writePump drains the session's event queue to the socket and pings
// idle connections. It exits when the queue closes (disconnect) or a
// write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.sess.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed",
					zap.String("session_id", c.sess.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
