package relay

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gymlink/gymlink-relay/internal/infrastructure/config"
)

// sendBufferSize is the per-client outbound message buffer size.
const sendBufferSize = 256

// Client represents one websocket connection within a gym's group, either a
// hardware bridge or an admin dashboard.
type Client struct {
	id    string
	gymID string
	role  Role

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a Client for an upgraded connection. The caller is
// expected to Register it with the hub and then Start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, gymID string, role Role) *Client {
	return &Client{
		id:    uuid.New().String(),
		gymID: gymID,
		role:  role,
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
	}
}

// ID returns the connection id assigned at creation.
func (c *Client) ID() string { return c.id }

// GymID returns the tenant this connection belongs to.
func (c *Client) GymID() string { return c.gymID }

// Role returns whether this connection is a bridge or an admin.
func (c *Client) Role() Role { return c.role }

// Start launches the read and write pumps for the connection.
func (c *Client) Start(cfg config.WebSocketConfig) {
	go c.writePump(cfg)
	go c.readPump(cfg)
}

// readPump reads messages from the websocket connection and hands them to
// the hub. It owns unregistration: when the read loop exits for any reason
// the client is removed from its group and the connection closed.
func (c *Client) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "conn_id", c.id, "gym_id", c.gymID, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "conn_id", c.id, "gym_id", c.gymID, "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection alive
		// even if the peer doesn't respond to protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.hub.HandleMessage(c, message)
	}
}

// writePump writes queued messages to the websocket connection and sends
// periodic pings.
func (c *Client) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend attempts to queue data for delivery to the client.
// It silently handles closed channels (client disconnected during broadcast)
// and full buffers (slow client).
func (c *Client) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// sendError queues an error frame for the client.
func (c *Client) sendError(message string) {
	data, err := EncodeError(message)
	if err != nil {
		return
	}
	c.trySend(data)
}
