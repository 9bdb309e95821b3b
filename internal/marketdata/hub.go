// Package marketdata fans the engine's book snapshots out over HTTP and
// WebSocket, per SPEC_FULL.md §4.6.
package marketdata

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks connected WebSocket subscribers and broadcasts the latest
// snapshot to each, adapted from the teacher's
// internal/websocket/transport/hub.go register/unregister/broadcast
// pattern. Unlike the teacher's hub, a broadcast is dropped for a
// subscriber whose send buffer is full rather than blocking the
// broadcaster (the subscriber stays registered), since a snapshot is
// stale the instant a fresher one exists.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	logger  *zap.Logger
	metrics *Metrics
}

func NewHub(logger *zap.Logger, metrics *Metrics) *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte), logger: logger, metrics: metrics}
}

// Register starts a write pump for conn and returns the channel the
// broadcaster should publish onto.
func (h *Hub) Register(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 1)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	h.metrics.ConnectedClients.Inc()

	go h.writePump(conn, send)
	return send
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if ok {
		close(send)
		h.metrics.ConnectedClients.Dec()
	}
}

// Broadcast pushes payload to every registered client, dropping it for
// any client whose buffer is still full from the previous broadcast.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			h.metrics.DroppedBroadcasts.Inc()
			h.logger.Warn("dropping snapshot for slow subscriber", zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, send chan []byte) {
	defer conn.Close()
	for payload := range send {
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			h.logger.Warn("websocket write failed, disconnecting", zap.Error(err))
			h.Unregister(conn)
			return
		}
	}
}
