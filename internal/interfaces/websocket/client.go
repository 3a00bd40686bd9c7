package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients only send pings and
	// subscription acks, so this is deliberately small.
	maxMessageSize = 4 * 1024
)

// Client represents a single WebSocket connection for a member.
type Client struct {
	id       string
	memberID string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	logger   *zap.Logger
}

// newClient creates a client and registers it with the hub.
func newClient(hub *Hub, conn *websocket.Conn, memberID string, sendBuffer int, logger *zap.Logger) *Client {
	return &Client{
		id:       uuid.New().String(),
		memberID: memberID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		logger:   logger,
	}
}

// readPump drains inbound frames and enforces the pong deadline. The UI
// never sends application data; the pump exists to detect dead peers.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected websocket close",
					zap.String("client_id", c.id),
					zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards hub messages to the peer and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
