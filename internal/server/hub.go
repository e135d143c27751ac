package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var _ Handler = (*StatusHub)(nil)

// StatusHub serves the status websocket and broadcasts text frames to every connected client.
type StatusHub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (c *hubClient) write(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, data)
}

// NewStatusHub creates a hub that accepts any origin.
func NewStatusHub(logger *log.Logger) *StatusHub {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &StatusHub{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:   logger,
		clients:  map[*hubClient]struct{}{},
	}
}

// Routes implements [Handler].
func (h *StatusHub) Routes() []string {
	return []string{services.StatusPath}
}

// ServeHTTP upgrades the request and keeps the connection registered until the client leaves.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &hubClient{conn: conn}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("status client connected", "session_id", r.Header.Get(services.SessionHeader))

	// clients never send anything; reading only detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(client)
}

func (h *StatusHub) remove(c *hubClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.Debug("status client disconnected")
	}
}

func (h *StatusHub) snapshot() []*hubClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast sends text to every open client. Clients that fail the write are dropped.
func (h *StatusHub) Broadcast(text string) {
	for _, c := range h.snapshot() {
		if err := c.write(websocket.TextMessage, []byte(text)); err != nil {
			h.logger.Warn("failed to send status update", "error", err)
			h.remove(c)
		}
	}
}

// Count returns the number of connected clients.
func (h *StatusHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close sends a going-away close frame to every client and refuses new ones.
func (h *StatusHub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range h.snapshot() {
		c.mu.Lock()
		err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.mu.Unlock()
		if err != nil {
			h.logger.Warn("failed to send close frame", "error", err)
		}
		h.remove(c)
	}
}
