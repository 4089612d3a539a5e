package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 2 * time.Second
	clientBacklog  = 16
	maxClientBytes = 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type stateClient struct {
	conn *websocket.Conn
	send chan []byte
}

// StateHub broadcasts painter state as JSON text messages over WebSocket.
type StateHub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*stateClient]struct{}
	latest  []byte
	closed  bool
}

// NewStateHub creates an empty hub.
func NewStateHub(log zerolog.Logger) *StateHub {
	return &StateHub{
		log:     log.With().Str("component", "state").Logger(),
		clients: make(map[*stateClient]struct{}),
	}
}

// Publish marshals v and queues it for every client. Clients whose backlog
// is full miss the message.
func (h *StateHub) Publish(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.latest = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *StateHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *StateHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &stateClient{conn: conn, send: make(chan []byte, clientBacklog)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Client messages are ignored; reading detects disconnects.
	conn.SetReadLimit(maxClientBytes)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	<-done
}

func (h *StateHub) writeLoop(c *stateClient, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			h.remove(c)
			// Drain so remove's close ends the range.
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.conn.Close()
}

func (h *StateHub) remove(c *stateClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
