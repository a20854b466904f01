// Package live pushes view state transitions to browsers over websockets.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taxi-insights/taxi-insights/internal/dashboard"
)

var (
	ErrEmptyConn      = errors.New("live: connection is empty")
	ErrConnIsNotFound = errors.New("live: connection not found")
)

// Snapshotter provides the state sent to a client right after it connects.
type Snapshotter interface {
	Snapshot() dashboard.ViewState
}

// ClientGauge tracks the number of connected clients.
type ClientGauge interface {
	ClientConnected(delta int)
}

// Message is the envelope written to every client.
type Message struct {
	Type  string              `json:"type"`
	State dashboard.ViewState `json:"state"`
}

// Hub holds all live connections and implements dashboard.Presenter.
type Hub struct {
	logger   *slog.Logger
	source   Snapshotter
	gauge    ClientGauge
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]*Conn
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub constructs a Hub. source and gauge may be nil.
func NewHub(logger *slog.Logger, source Snapshotter, gauge ClientGauge) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		logger: logger,
		source: source,
		gauge:  gauge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[uuid.UUID]*Conn),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetSource sets the snapshot source. The hub and the controller reference
// each other, so one of them is wired after construction.
func (h *Hub) SetSource(source Snapshotter) {
	h.mu.Lock()
	h.source = source
	h.mu.Unlock()
}

// Present broadcasts state to every client without blocking.
func (h *Hub) Present(state dashboard.ViewState) {
	msg, err := encode(state)
	if err != nil {
		h.logger.Error("encode live state", slog.Any("error", err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}

// ServeHTTP upgrades the request and streams view states until the client
// disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.Any("error", err))
		return
	}
	conn := newConn(h.ctx, ws)

	// The snapshot goes out before registration so a broadcast can never be
	// overtaken by an older state.
	h.mu.Lock()
	source := h.source
	h.mu.Unlock()
	if source != nil {
		if msg, err := encode(source.Snapshot()); err == nil {
			conn.enqueue(msg)
		}
	}
	if err := h.Add(conn); err != nil {
		_ = conn.Close()
		return
	}
	logger := h.logger.With(slog.String("client_id", conn.ID().String()))
	logger.Debug("live client connected")

	go conn.writePump()
	if err := conn.readPump(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Debug("live client read", slog.Any("error", err))
	}
	_ = h.Delete(conn.ID())
	logger.Debug("live client disconnected")
}

// Add registers a connection.
func (h *Hub) Add(conn *Conn) error {
	if conn == nil {
		return ErrEmptyConn
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn.id] = conn
	h.wg.Add(1)
	if h.gauge != nil {
		h.gauge.ClientConnected(1)
	}
	return nil
}

// Delete closes and removes the connection with id.
func (h *Hub) Delete(id uuid.UUID) error {
	h.mu.Lock()
	conn, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if !ok {
		return ErrConnIsNotFound
	}

	if err := conn.Close(); err != nil {
		h.logger.Debug("close live client", slog.String("client_id", id.String()), slog.Any("error", err))
	}
	if h.gauge != nil {
		h.gauge.ClientConnected(-1)
	}
	h.wg.Done()
	return nil
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and waits for them to be removed.
func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	ids := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		_ = h.Delete(id)
	}
	h.wg.Wait()
	h.logger.Info("live connections closed")
}

func encode(state dashboard.ViewState) ([]byte, error) {
	return json.Marshal(Message{Type: "state", State: state})
}
