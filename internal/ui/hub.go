package ui

// Fan-out of JSON push messages to browser observers. An observer is the send
// side of one connected WebSocket; any observer whose send fails is dropped
// immediately, no retry. Removal is safe during a broadcast because each
// broadcast iterates over a snapshot of the set.

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("comp", "ui")

// observer wraps one connection with its own write lock; gorilla permits a
// single concurrent writer per connection.
type observer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (o *observer) send(v interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conn.WriteJSON(v)
}

// Hub is the observer set.
type Hub struct {
	mu        sync.Mutex
	observers map[*observer]struct{}
}

func NewHub() *Hub {
	return &Hub{observers: make(map[*observer]struct{})}
}

func (h *Hub) add(conn *websocket.Conn) *observer {
	o := &observer{conn: conn}
	h.mu.Lock()
	h.observers[o] = struct{}{}
	n := len(h.observers)
	h.mu.Unlock()
	logger.WithField("observers", n).Debug("observer attached")
	return o
}

func (h *Hub) remove(o *observer) {
	h.mu.Lock()
	delete(h.observers, o)
	h.mu.Unlock()
	_ = o.conn.Close()
}

// Count reports the number of attached observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Broadcast fans v out to every observer, dropping any whose send fails.
func (h *Hub) Broadcast(v interface{}) {
	h.mu.Lock()
	snapshot := make([]*observer, 0, len(h.observers))
	for o := range h.observers {
		snapshot = append(snapshot, o)
	}
	h.mu.Unlock()

	for _, o := range snapshot {
		if err := o.send(v); err != nil {
			logger.Debugf("observer dropped: %v", err)
			h.remove(o)
		}
	}
}
