package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// Hub holds the connected floor terminals (host stand, servers, bussers)
// and pushes every seating event to all of them.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> terminal name
	mutex   sync.Mutex
	log     logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]string),
		log:     log,
	}
}

// Register adds a connection under the given terminal name.
func (h *Hub) Register(conn *websocket.Conn, terminal string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = terminal
	h.log.WithField("terminal", terminal).Info("floor terminal connected")
}

// Unregister drops the connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(conn)
}

func (h *Hub) drop(conn *websocket.Conn) {
	terminal, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	h.log.WithField("terminal", terminal).Info("floor terminal disconnected")
}

// Clients returns the number of connected terminals.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish sends the event to every terminal. Terminals that cannot keep up
// are disconnected.
func (h *Hub) Publish(event string, data interface{}) {
	msg := NewMessage(event, data)
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("marshal floor event")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.log.WithFields(logrus.Fields{
		"event":   event,
		"id":      msg.ID,
		"clients": len(h.clients),
	}).Debug("broadcasting floor event")

	for conn, terminal := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.WithError(err).WithField("terminal", terminal).Warn("send floor event")
			h.drop(conn)
		}
	}
}
