// Package realtime pushes inbox events to the back-office over websockets,
// one room per tenant.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks connections per tenant and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Connection]struct{}
	upgrader websocket.Upgrader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewHub creates a hub. Origins are checked against allowedOrigins; an empty
// list or "*" accepts any origin.
func NewHub(allowedOrigins []string, metrics *observability.Metrics, logger *zap.Logger) *Hub {
	h := &Hub{
		rooms:   make(map[string]map[*Connection]struct{}),
		metrics: metrics,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Serve upgrades the request and keeps the socket in the tenant room until
// the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, tenantID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConnection(tenantID, ws)
	h.register(conn)
	go conn.writeLoop()

	conn.readLoop()

	h.unregister(conn)
	conn.Close(websocket.CloseNormalClosure, "")
}

// Broadcast sends ev to every socket of the tenant.
func (h *Hub) Broadcast(tenantID string, ev domain.InboxEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("inbox event encode failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.rooms[tenantID]))
	for c := range h.rooms[tenantID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(payload) {
			h.unregister(c)
		}
	}
}

// Clients returns the number of open sockets of a tenant.
func (h *Hub) Clients(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tenantID])
}

// CloseAll disconnects every client, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[*Connection]struct{})
	h.mu.Unlock()

	for _, room := range rooms {
		for c := range room {
			c.Close(websocket.CloseGoingAway, "server shutting down")
		}
	}
	h.metrics.SetInboxClients(0)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	room, ok := h.rooms[c.TenantID]
	if !ok {
		room = make(map[*Connection]struct{})
		h.rooms[c.TenantID] = room
	}
	room[c] = struct{}{}
	n := h.countLocked()
	h.mu.Unlock()

	h.metrics.SetInboxClients(n)
	h.logger.Debug("inbox client connected", zap.String("tenant_id", c.TenantID), zap.String("conn_id", c.ID))
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	room, ok := h.rooms[c.TenantID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.TenantID)
	}
	n := h.countLocked()
	h.mu.Unlock()

	h.metrics.SetInboxClients(n)
	h.logger.Debug("inbox client disconnected", zap.String("tenant_id", c.TenantID), zap.String("conn_id", c.ID))
}

func (h *Hub) countLocked() int {
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}
