// Package monitor streams software PWM waveform snapshots to websocket
// clients and serves the latest pipeline results as JSON.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"irsbeam/core"
)

const sendQueue = 64

type client struct {
	conn *websocket.Conn
	send chan any
}

// writePump forwards queued messages to the connection until the queue is
// closed or a write fails.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub tracks connected clients. Broadcast never blocks: a client whose
// queue is full misses that message.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
	results []core.ElementResult
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*client]bool),
	}
}

// Handler routes /ws to the waveform stream and /results to the pipeline
// results.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/results", h.serveResults)
	return mux
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("monitor: upgrade:", err)
		return
	}

	c := &client{conn: conn, send: make(chan any, sendQueue)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	core.DebugPrintln("[MONITOR] client connected")

	go c.writePump()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		core.DebugPrintln("[MONITOR] client disconnected")
	}()

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) serveResults(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	results := h.results
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.Println("monitor: results:", err)
	}
}

// SetResults replaces the results served on /results.
func (h *Hub) SetResults(results []core.ElementResult) {
	h.mu.Lock()
	h.results = append([]core.ElementResult(nil), results...)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues snap for every connected client.
func (h *Hub) Broadcast(snap core.WaveformSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- snap:
		default:
		}
	}
}

// OnPeriod adapts Broadcast to core.SoftPWMEmitter.OnPeriod.
func (h *Hub) OnPeriod(s *core.SoftPWM) {
	h.Broadcast(s.Snapshot())
}
