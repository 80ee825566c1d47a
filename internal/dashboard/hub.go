// Package dashboard broadcasts sync and store events to connected
// WebSocket clients, so the admin frontend can show live progress
// without polling.
package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"

	syncer "github.com/dcastano/asistencia/internal/sync"
)

// MessageType defines the type of dashboard message.
type MessageType string

const (
	// MessageTypeSyncComplete indicates a push or pull run finished.
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeSyncFailed indicates a run aborted, with its stage.
	MessageTypeSyncFailed MessageType = "sync_failed"

	// MessageTypeStats carries store row counts.
	MessageTypeStats MessageType = "stats"
)

// Message is a dashboard broadcast envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SyncFailedData describes an aborted run.
type SyncFailedData struct {
	Direction string `json:"direction"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// StatsData carries row counts of the active store.
type StatsData struct {
	Users      int `json:"users"`
	Attendance int `json:"attendance"`
	Offices    int `json:"offices"`
}

// Hub manages WebSocket clients and fans broadcast messages out to them.
// It implements the reconciler's EventSink.
type Hub struct {
	logger *log.Logger

	clients   map[*websocket.Conn]struct{}
	clientsMu sync.RWMutex

	broadcast chan Message

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub. Call Run to start the broadcast loop.
// If logger is nil, a default logger writing to stderr is used.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}
	return &Hub{
		logger:    logger,
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan Message, 64),
		done:      make(chan struct{}),
	}
}

// Run delivers broadcast messages to every connected client until ctx is
// cancelled. A client that cannot be written to within its deadline is
// dropped so one slow consumer cannot stall the rest.
func (h *Hub) Run(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				h.logger.Printf("Failed to marshal message: %v", err)
				continue
			}
			h.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for c := range h.clients {
				conns = append(conns, c)
			}
			h.clientsMu.RUnlock()

			for _, c := range conns {
				writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := c.Write(writeCtx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					h.removeClient(c)
					_ = c.Close(websocket.StatusPolicyViolation, "write timeout")
				}
			}
		}
	}
}

// Stop shuts the hub down and waits for the broadcast loop to exit.
func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// client. The connection is held open until the peer goes away or the
// hub shuts down; clients only listen, inbound frames are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Printf("WebSocket accept failed: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = struct{}{}
	h.clientsMu.Unlock()
	h.logger.Printf("Client connected (%d total)", h.clientCount())

	// Reading detects the peer closing.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.removeClient(conn)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Printf("Client disconnected (%d total)", h.clientCount())
}

// SyncCompleted implements sync.EventSink.
func (h *Hub) SyncCompleted(report *syncer.Report) {
	h.publish(MessageTypeSyncComplete, report)
}

// SyncFailed implements sync.EventSink.
func (h *Hub) SyncFailed(direction syncer.Direction, stage string, err error) {
	h.publish(MessageTypeSyncFailed, SyncFailedData{
		Direction: string(direction),
		Stage:     stage,
		Error:     err.Error(),
	})
}

// PublishStats broadcasts current store row counts.
func (h *Hub) PublishStats(stats StatsData) {
	h.publish(MessageTypeStats, stats)
}

func (h *Hub) publish(typ MessageType, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s payload: %v", typ, err)
		return
	}
	msg := Message{Type: typ, Timestamp: time.Now().UTC(), Data: raw}
	select {
	case h.broadcast <- msg:
	default:
		// Queue full; drop rather than block the reconciler.
		h.logger.Printf("Broadcast queue full, dropping %s", typ)
	}
}

func (h *Hub) removeClient(c *websocket.Conn) {
	h.clientsMu.Lock()
	delete(h.clients, c)
	h.clientsMu.Unlock()
}

func (h *Hub) clientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, c)
	}
}
