package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wavectl/internal/gesture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes accepted gesture events to WebSocket clients.
// It watches the engine's latest-event cell and broadcasts every change,
// so clients see each accepted event once instead of polling /api/gesture.
type EventsHandler struct {
	engine  Engine
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex

	stop      chan struct{}
	closeOnce sync.Once
}

// NewEventsHandler creates a new EventsHandler watching the given engine.
// Close releases the broadcast goroutine it spawns.
func NewEventsHandler(engine Engine) *EventsHandler {
	h := &EventsHandler{
		engine:  engine,
		clients: make(map[*websocket.Conn]bool),
		stop:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Close terminates the broadcast goroutine. Connected clients stay open
// until they disconnect; they just stop receiving events. Safe to call
// more than once.
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() {
		close(h.stop)
	})
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast watches for newly accepted events and fans them out.
func (h *EventsHandler) broadcast() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var last gesture.Event

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
		// The select picks at random when both are ready, so re-check
		// before touching any client.
		select {
		case <-h.stop:
			return
		default:
		}

		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		e := h.engine.Latest()
		// The sentinel never broadcasts; a repeated gesture does, since
		// its timestamp moved.
		if e.IsZero() || e.Timestamp.Equal(last.Timestamp) {
			continue
		}
		last = e

		h.mu.RLock()
		for conn := range h.clients {
			if err := conn.WriteJSON(e); err != nil {
				log.Printf("websocket write error: %v", err)
			}
		}
		h.mu.RUnlock()
	}
}
