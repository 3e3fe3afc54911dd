package status

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veriscan/veriscan/internal/logging"
)

const (
	// writeWait is the time allowed to write one message to a peer.
	writeWait = 10 * time.Second
	// pongWait is how long a peer may stay silent before its connection
	// is considered dead.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait so pings keep healthy
	// connections alive.
	pingPeriod = 54 * time.Second

	maxMessageSize = 512
	broadcastDepth = 16
)

// Hub fans progress updates out to websocket subscribers. All writes go
// through the run loop, so each connection has exactly one writer; the
// per-connection read pump only services pongs and detects disconnects.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mutex   sync.RWMutex
	clients map[*websocket.Conn]bool

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	shutdown   chan struct{}
	once       sync.Once
}

func newHub(logger *logging.Logger) *Hub {
	hub := &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The status server binds to loopback by default and
				// carries no mutable state, so any origin may watch.
				return true
			},
		},
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, broadcastDepth),
		shutdown:   make(chan struct{}),
	}

	go hub.run()

	return hub
}

// StreamHandler upgrades the request and streams progress updates until the
// peer disconnects or the hub shuts down.
func (h *Hub) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.shutdown:
		_ = conn.Close()
		return
	}

	h.readPump(conn)
}

// Broadcast queues one message for every connected client. Slow consumers
// never block a scan: when the queue is full the update is dropped, and the
// next tick carries fresher data anyway.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Shutdown stops the run loop and closes every connection.
func (h *Hub) Shutdown() {
	h.once.Do(func() {
		close(h.shutdown)
	})
}

func (h *Hub) run() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-h.shutdown:
			h.closeAll()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.logger.Debug("progress subscriber connected", "clients", h.ClientCount())

		case conn := <-h.unregister:
			h.drop(conn)

		case message := <-h.broadcast:
			h.writeAll(websocket.TextMessage, message)

		case <-ticker.C:
			h.writeAll(websocket.PingMessage, nil)
		}
	}
}

func (h *Hub) readPump(conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.shutdown:
			_ = conn.Close()
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeAll delivers one frame to every client, dropping connections whose
// writes fail or time out.
func (h *Hub) writeAll(messageType int, data []byte) {
	h.mutex.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mutex.RUnlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(messageType, data); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mutex.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	h.mutex.Unlock()
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
	h.mutex.Unlock()
}
