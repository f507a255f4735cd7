// Package notify pushes user-facing toast notices to connected
// frontends over a websocket. It implements the Notifier contract the
// session manager and query executor publish through.
package notify

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Notice is a single toast-style notification.
type Notice struct {
	Level   string    `json:"level"` // success | error
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type client struct {
	conn *websocket.Conn
	send chan Notice
}

// Hub fans notices out to every connected client. Broadcasts never
// block: a client that cannot keep up drops notices.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	now     func() time.Time
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		now:     time.Now,
	}
}

// Success broadcasts a success notice.
func (h *Hub) Success(message string) {
	h.broadcast(Notice{Level: "success", Message: message, Time: h.now()})
}

// Error broadcasts an error notice.
func (h *Hub) Error(message string) {
	h.broadcast(Notice{Level: "error", Message: message, Time: h.now()})
}

func (h *Hub) broadcast(notice Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- notice:
		default:
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the connection and streams notices until the
// client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[notify] upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Notice, 16)}
	h.add(c)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for notice := range c.send {
		if err := c.conn.WriteJSON(notice); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; it exists to observe the close.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
