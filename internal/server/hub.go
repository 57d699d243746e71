package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/knowlumi/interview-panel/internal/interview"
)

// writeTimeout bounds every websocket write. The engine can emit while
// holding its own lock, so a subscriber that stops reading must never be able
// to block a transition; it gets dropped instead.
const writeTimeout = 5 * time.Second

// hub fans session events out to every connected websocket client. Events
// are also kept in a backlog so a client that connects after the session
// started receives the full stream from the beginning.
type hub struct {
	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	backlog [][]byte
	closed  bool
	logger  *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		conns:  make(map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

// Emit implements interview.Sink.
func (h *hub) Emit(e interview.Event) {
	h.broadcast(e)
}

// broadcast serializes v, appends it to the backlog and writes it to every
// live connection. A connection that fails to take the write is dropped.
func (h *hub) broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encoding event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.backlog = append(h.backlog, payload)

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("dropping event subscriber", zap.Error(err))
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// register replays the backlog to a new connection and adds it to the fan
// out set. The replay and the add happen under one lock so no event is
// missed or duplicated.
func (h *hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		conn.Close()
		return
	}

	for _, payload := range h.backlog {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			return
		}
	}
	h.conns[conn] = struct{}{}
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn := range h.conns {
		conn.Close()
	}
	h.conns = nil
	h.backlog = nil
}
