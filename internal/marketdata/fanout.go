package marketdata

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SnapshotReceiver abstracts the SUB socket dialed to the engine's
// snapshots-out channel.
type SnapshotReceiver interface {
	Recv(ctx context.Context) ([]byte, error)
}

// Store holds the most recently received snapshot behind a mutex, so
// HTTP and WebSocket handlers never block on the ingest loop.
type Store struct {
	mu       sync.RWMutex
	latest   []byte
	received bool
}

func (s *Store) set(payload []byte) {
	s.mu.Lock()
	s.latest = payload
	s.received = true
	s.mu.Unlock()
}

func (s *Store) get() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.received
}

// Fanout ingests snapshots from the engine's PUB channel and serves them
// over HTTP (GET /status) and WebSocket, per SPEC_FULL.md §4.6.
type Fanout struct {
	store    Store
	hub      *Hub
	logger   *zap.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader
}

func NewFanout(logger *zap.Logger, metrics *Metrics) *Fanout {
	return &Fanout{
		hub:      NewHub(logger, metrics),
		logger:   logger,
		metrics:  metrics,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Ingest reads snapshots from recv until ctx is canceled, updating the
// store and broadcasting to WebSocket subscribers on every message.
func (f *Fanout) Ingest(ctx context.Context, recv SnapshotReceiver) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		payload, err := recv.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.logger.Warn("snapshot recv failed, continuing", zap.Error(err))
			continue
		}
		f.metrics.SnapshotsReceived.Inc()
		f.store.set(payload)
		f.hub.Broadcast(payload)
	}
}

// Router builds the gin engine serving /status and /ws, wrapped with
// CORS and the rate-limiting middleware, following the teacher's
// gin-gonic + gin-contrib/cors composition.
func (f *Fanout) Router(rateLimit *RateLimitMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	status := r.Group("/")
	status.Use(rateLimit.Handle())
	status.GET("status", f.handleStatus)
	r.GET("/ws", f.handleWebSocket)
	return r
}

func (f *Fanout) handleStatus(c *gin.Context) {
	f.metrics.StatusRequests.Inc()
	payload, ok := f.store.get()
	if !ok {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("no snapshot published yet\n"))
		return
	}

	body, compressed, err := maybeCompress(payload)
	if err != nil {
		f.logger.Error("snapshot compression failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if compressed {
		c.Header("Content-Encoding", "zstd")
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

func (f *Fanout) handleWebSocket(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	send := f.hub.Register(conn)
	if payload, ok := f.store.get(); ok {
		select {
		case send <- payload:
		default:
		}
	}
}
