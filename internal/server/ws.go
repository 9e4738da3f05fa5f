package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/vestir/internal/app"
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 2 * time.Second
	clientQueue = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Publisher delivers session updates.
type Publisher interface {
	Subscribe(fn func(app.Update)) (unsubscribe func())
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// StreamHandler pushes every session update to connected WebSocket clients
// as JSON. A client that falls behind misses updates instead of stalling
// the pipeline.
type StreamHandler struct {
	log         logs.Log
	mu          sync.Mutex
	clients     map[*streamClient]struct{}
	unsubscribe func()
}

// NewStreamHandler subscribes to pub and serves its updates.
func NewStreamHandler(pub Publisher, log logs.Log) *StreamHandler {
	h := &StreamHandler{
		log:     log,
		clients: make(map[*streamClient]struct{}),
	}
	h.unsubscribe = pub.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, clientQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Infof("Stream client connected from %s", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.write(c)
	}()

	// Clients never send anything we act on; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	<-done
	conn.Close()
	h.log.Infof("Stream client %s disconnected", r.RemoteAddr)
}

func (h *StreamHandler) write(c *streamClient) {
	failed := false
	for msg := range c.send {
		if failed {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Errorf("Stream write failed: %v", err)
			c.conn.Close()
			failed = true
		}
	}
}

func (h *StreamHandler) broadcast(u app.Update) {
	if h.Clients() == 0 {
		return
	}

	msg, err := json.Marshal(u)
	if err != nil {
		h.log.Errorf("Failed to encode update: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *StreamHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops listening for updates and disconnects every client.
func (h *StreamHandler) Close() {
	h.unsubscribe()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
