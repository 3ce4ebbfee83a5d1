package hub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds subscriber-facing connection settings.
type Config struct {
	SendBuffer   int           // per-subscriber outbound queue capacity
	WriteTimeout time.Duration // write deadline per message
	PongTimeout  time.Duration // max silence before a subscriber is dead
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   256,
		WriteTimeout: 5 * time.Second,
		PongTimeout:  60 * time.Second,
	}
}

// Hub is the registry of active subscribers.
type Hub struct {
	cfg    Config
	logger *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	clients map[*Client]struct{}
	count   atomic.Int64

	// catchup builds the messages queued to a subscriber before it joins
	// the live broadcast set. Invoked from the run loop, so the snapshot
	// it takes is consistent with everything already broadcast.
	catchup func() [][]byte

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub with no subscribers.
func NewHub(cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	// Until Start, the hub behaves as already stopped: ServeWS closes new
	// connections and Disconnect is a no-op instead of blocking on a run
	// loop that is not there yet.
	stopped, cancel := context.WithCancel(context.Background())
	cancel()
	return &Hub{
		ctx: stopped,
		cfg:        cfg,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 1024),
		clients:    make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetCatchUp installs the catch-up source. Must be called before Start.
func (h *Hub) SetCatchUp(fn func() [][]byte) {
	h.catchup = fn
}

// Start begins the run loop.
func (h *Hub) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go h.run()

	h.logger.Info("subscriber hub started", "send_buffer", h.cfg.SendBuffer)
	return nil
}

// Stop closes every subscriber and shuts the run loop down.
func (h *Hub) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("subscriber hub stopped")
	case <-ctx.Done():
		h.logger.Warn("subscriber hub stop timed out")
	}
	return nil
}

// Broadcast queues a message for delivery to every subscriber. Never
// blocks the caller: when the hub loop has fallen impossibly far behind,
// the message is dropped with a warning.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// Disconnect removes a subscriber. Idempotent: unknown or already-removed
// subscribers are a no-op.
func (h *Hub) Disconnect(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// Count returns the number of active subscribers.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// ServeWS upgrades an HTTP request to a subscriber connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := newClient(h, conn)
	h.logger.Info("subscriber connected", "id", c.id, "remote", r.RemoteAddr)

	go c.writePump()
	go c.readPump()

	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
	}
}

// run serializes all membership changes and fan-out.
func (h *Hub) run() {
	defer h.wg.Done()
	defer h.closeAll()

	for {
		select {
		case <-h.ctx.Done():
			return

		case c := <-h.register:
			h.admit(c)

		case c := <-h.unregister:
			h.drop(c, "disconnected")

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Queue full: this subscriber is too slow for the
					// feed. Cutting it here keeps everyone else live.
					h.drop(c, "send queue overflow")
				}
			}
		}
	}
}

// admit queues catch-up to the new subscriber, then adds it to the live
// set. Because admit runs on the same loop as broadcast, the catch-up
// snapshot can never be stale relative to messages already delivered.
func (h *Hub) admit(c *Client) {
	if h.catchup != nil {
		for _, msg := range h.catchup() {
			select {
			case c.send <- msg:
			default:
				h.logger.Warn("subscriber queue overflow during catch-up", "id", c.id)
				c.closeSend()
				return
			}
		}
	}
	h.clients[c] = struct{}{}
	h.count.Store(int64(len(h.clients)))
}

func (h *Hub) drop(c *Client, reason string) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.closeSend()
	h.count.Store(int64(len(h.clients)))
	h.logger.Info("subscriber removed", "id", c.id, "reason", reason)
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		delete(h.clients, c)
		c.closeSend()
	}
	h.count.Store(0)
}

// newClientID is split out so tests can make deterministic clients.
func newClientID() uuid.UUID {
	return uuid.New()
}
