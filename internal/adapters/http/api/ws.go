// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/cogbridge/cogbridge/pkg/logger"
	"github.com/cogbridge/cogbridge/pkg/metrics"
)

// wsWriteTimeout bounds a single broadcast write. Clients that cannot
// keep up within this window are dropped rather than stalling the feed.
const wsWriteTimeout = 5 * time.Second

// wsClient is a connected dashboard socket with serialized writes.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return websocket.Message.Send(c.conn, string(frame))
}

// Hub fans live updates out to connected dashboard sockets. The service
// layer pushes frames with Broadcast; handlers register connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	logger  logger.Logger
}

// HubOption customizes hub behavior.
type HubOption func(*Hub)

// WithHubLogger sets the logger used for connection lifecycle events.
func WithHubLogger(log logger.Logger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.logger = log
		}
	}
}

// NewHub creates an empty broadcast hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger.Named("ws"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler returns the HTTP handler serving GET /ws upgrades.
func (h *Hub) Handler() http.Handler {
	wsHandler := websocket.Handler(h.serve)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
}

// Broadcast marshals v once and sends it to every connected client.
// Clients whose writes fail or time out are disconnected.
func (h *Hub) Broadcast(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		h.logger.Error(context.Background(), "failed to marshal broadcast frame", logger.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(frame); err != nil {
			h.logger.Debug(context.Background(), "dropping slow websocket client", logger.Error(err))
			h.remove(c)
			_ = c.conn.Close()
		}
	}
}

// ClientCount reports the number of connected sockets.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) serve(conn *websocket.Conn) {
	// The server's request timeouts armed before the hijack would kill
	// a long-lived socket; writes re-arm their own deadline per frame.
	_ = conn.SetDeadline(time.Time{})

	c := &wsClient{conn: conn}
	h.add(c)
	defer func() {
		h.remove(c)
		_ = conn.Close()
	}()

	// The feed is one-way. Drain inbound frames so pings and client
	// noise do not back up the connection, and return on close.
	for {
		var discard string
		if err := websocket.Message.Receive(conn, &discard); err != nil {
			if err != io.EOF {
				h.logger.Debug(context.Background(), "websocket receive ended", logger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateWSClients(count)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateWSClients(count)
}
