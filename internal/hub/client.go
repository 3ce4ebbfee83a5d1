package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxInboundSize = 4096 // subscribers only ever send tiny control payloads

// Client is one subscriber connection. Lifecycle: connect, member of the
// broadcast set, disconnect. Removal is idempotent and also triggered by a
// failed or overflowing send.
//
// The hub run loop is the only closer of send. The read goroutine also
// enqueues (pong replies), so the two coordinate through mu and closed:
// a send after the hub dropped the client is discarded, never a panic.
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   newClientID(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}
}

// inboundMessage is the only subscriber-to-server payload we understand.
type inboundMessage struct {
	Type string `json:"type"`
}

var pongPayload = []byte(`{"type":"pong"}`)

// trySend enqueues msg unless the queue is full or the hub has already
// closed it. Safe to call from any goroutine.
func (c *Client) trySend(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		// Queue full; the message is expendable.
	}
}

// closeSend closes the outbound queue. Idempotent; called only from the
// hub run loop.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes inbound traffic and watches connection liveness.
// A {"type":"ping"} payload is answered with {"type":"pong"}; anything
// unparseable is logged and ignored, and the connection stays open.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("subscriber read error", "id", c.id, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Warn("unparseable subscriber payload", "id", c.id, "error", err)
			continue
		}

		if msg.Type == "ping" {
			c.trySend(pongPayload)
		}
	}
}

// writePump drains the outbound queue onto the connection and sends
// protocol-level pings to keep it alive.
func (c *Client) writePump() {
	pingEvery := c.hub.cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				// Hub removed us.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.logger.Debug("subscriber write failed", "id", c.id, "error", err)
				c.hub.Disconnect(c)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Disconnect(c)
				return
			}
		}
	}
}
