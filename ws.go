package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHub pushes the vehicle list to every connected map page. When followClients
// is set, an open page is what makes the application "visible".
type wsHub struct {
	store         *Store
	visibility    *Visibility
	followClients bool

	mu      sync.Mutex
	clients map[*websocket.Conn]uuid.UUID
}

func newHub(store *Store, visibility *Visibility, followClients bool) *wsHub {
	h := &wsHub{
		store:         store,
		visibility:    visibility,
		followClients: followClients,
		clients:       make(map[*websocket.Conn]uuid.UUID),
	}
	h.follow(0)
	return h
}

func (h *wsHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade error")
		return
	}
	id := h.add(conn)
	log.WithFields(log.Fields{"client": id, "remote": r.RemoteAddr}).Info("ws client connected")
	go h.readPump(conn)
}

// add registers the connection and sends it the current vehicles while holding
// the hub lock, so the first message cannot interleave with a broadcast.
func (h *wsHub) add(c *websocket.Conn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.clients[c] = id
	if err := writeMessage(c, h.encode()); err != nil {
		log.WithError(err).WithField("client", id).Debug("ws initial write failed")
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.follow(n)
	return id
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	id, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		log.WithField("client", id).Info("ws client disconnected")
		h.follow(n)
	}
}

func (h *wsHub) follow(clients int) {
	if !h.followClients {
		return
	}
	if h.visibility.Set(clients > 0) {
		log.WithField("visible", clients > 0).Info("visibility changed")
	}
}

func (h *wsHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Redraw implements RedrawNotifier.
func (h *wsHub) Redraw() {
	h.broadcast(h.encode())
}

func (h *wsHub) encode() []byte {
	data, err := json.Marshal(sortedVehicles(h.store.Snapshot()))
	if err != nil {
		log.WithError(err).Error("encode vehicles")
		return []byte("[]")
	}
	return data
}

func (h *wsHub) broadcast(data []byte) {
	h.mu.Lock()
	var dropped int
	for c, id := range h.clients {
		if err := writeMessage(c, data); err != nil {
			log.WithError(err).WithField("client", id).Debug("ws write failed")
			c.Close()
			delete(h.clients, c)
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	if dropped > 0 {
		h.follow(n)
	}
}

func (h *wsHub) readPump(c *websocket.Conn) {
	defer func() {
		h.remove(c)
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func writeMessage(c *websocket.Conn, data []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(websocket.TextMessage, data)
}
