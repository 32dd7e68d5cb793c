package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/fibertree/pkg/middleware"
)

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	metrics *middleware.Metrics
	logger  *slog.Logger
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(metrics *middleware.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		metrics: metrics,
		logger:  logger.With("component", "hub"),
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every client and returns how many received it.
// Clients whose queue is full are disconnected.
func (h *Hub) Broadcast(msg Message) int {
	data := encode(msg)

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for c := range h.clients {
		if c.queue(data) {
			sent++
			continue
		}
		h.logger.Warn("client too slow, disconnecting", "client", c.id)
		h.recordError("slow_client")
		h.dropLocked(c)
	}
	if h.metrics != nil && msg.Type == MsgOps {
		h.metrics.RecordOps(len(msg.Ops) * sent)
	}
	return sent
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RecordClientConnect()
	}
	h.logger.Info("client connected", "client", c.id, "clients", h.Len())
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	if h.metrics != nil {
		h.metrics.RecordClientDisconnect()
	}
	h.logger.Info("client disconnected", "client", c.id)
}

func (h *Hub) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordWebSocketError(kind)
	}
}

// client is one websocket connection.
type client struct {
	id     uint64
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	config Config
}

func newClient(id uint64, conn *websocket.Conn, config Config) *client {
	return &client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, config.SendQueue),
		done:   make(chan struct{}),
		config: config,
	}
}

// queue is non-blocking and reports false when the send buffer is full.
func (c *client) queue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writeLoop sends queued messages and heartbeat pings until the client is
// closed or a write fails.
func (c *client) writeLoop(h *Hub) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("write failed", "client", c.id, "error", err)
				h.recordError("write")
				h.remove(c)
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				h.recordError("ping")
				h.remove(c)
				return
			}

		case <-c.done:
			deadline := time.Now().Add(time.Second)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// readLoop hands every incoming message to onMessage until the connection
// fails or the client is closed.
func (c *client) readLoop(h *Hub, onMessage func(*client, []byte)) {
	defer h.remove(c)

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Error("read error", "client", c.id, "error", err)
				h.recordError("read")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		onMessage(c, data)
	}
}
