package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// Hub is the connection registry: it owns every live Client and the room
// indexes over them. A connection joins exactly its tenant room and its user
// room at registration and keeps that membership for its lifetime; there is
// no client-driven subscribe step. The hub is pure in-memory state, rebuilt
// from reconnects after a restart.
type Hub struct {
	// clients maps connection ids to clients.
	clients map[uuid.UUID]*Client

	// rooms indexes clients by room name so broadcast is O(room size).
	rooms map[string]map[*Client]bool

	// mu serializes all membership mutation and guards reads from
	// concurrent broadcasts.
	mu sync.RWMutex

	logger *slog.Logger
}

var _ ports.LiveBroadcaster = (*Hub)(nil)

// NewHub creates an empty registry.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		rooms:   make(map[string]map[*Client]bool),
		logger:  logger.With("component", "websocket_hub"),
	}
}

// Register binds an authenticated client into the registry and its two
// rooms. The caller must have verified the client's identity first; the hub
// itself never sees credentials.
func (h *Hub) Register(client *Client) {
	tenantRoom, userRoom := domain.RoomsFor(client.Identity)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.joinRoom(tenantRoom, client)
	h.joinRoom(userRoom, client)
	client.setState(stateAuthenticated)

	h.logger.Info("client registered",
		"connection_id", client.ID,
		"user_id", client.Identity.UserID,
		"tenant_id", client.Identity.TenantID,
		"role", client.Identity.Role,
	)
}

// Unregister removes the client from the registry and all rooms and closes
// its send queue. It is idempotent: unregistering an unknown or already
// removed connection is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)

	tenantRoom, userRoom := domain.RoomsFor(client.Identity)
	h.leaveRoom(tenantRoom, client)
	h.leaveRoom(userRoom, client)

	client.setState(stateClosed)
	client.closeSend()

	h.logger.Info("client unregistered",
		"connection_id", client.ID,
		"user_id", client.Identity.UserID,
	)
}

// Shutdown unregisters every live client, closing their send queues so
// write pumps drain and exit. Read pumps observe the closed connections and
// finish on their own.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.Unregister(client)
	}

	h.logger.Info("hub shut down", "closed_connections", len(clients))
}

// Broadcast pushes the event to every current member of the room. Delivery
// per connection is best-effort: a full buffer or a concurrently closed
// connection is logged and skipped, never aborts the rest of the room.
func (h *Hub) Broadcast(room string, event domain.Event) {
	members := h.ConnectionsIn(room)
	if len(members) == 0 {
		return
	}

	envelope := event.Envelope()
	for _, client := range members {
		if client.Identity.TenantID != event.TenantID {
			panic(&apperrors.TenantIsolationError{
				Room:           room,
				EventTenantID:  event.TenantID.String(),
				ConnectionID:   client.ID.String(),
				MemberTenantID: client.Identity.TenantID.String(),
			})
		}

		if !client.TrySend(envelope) {
			h.logger.Warn("live delivery skipped",
				"connection_id", client.ID,
				"user_id", client.Identity.UserID,
				"kind", event.Kind,
			)
		}
	}

	h.logger.Debug("event broadcast",
		"room", room,
		"kind", event.Kind,
		"members", len(members),
	)
}

// ConnectionsIn returns a snapshot of the room's members. Callers must
// tolerate connections closing between the snapshot and use.
func (h *Hub) ConnectionsIn(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[room]
	out := make([]*Client, 0, len(members))
	for client := range members {
		out = append(out, client)
	}
	return out
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// IsUserConnected reports whether the user has at least one live connection.
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[domain.UserRoom(userID)]) > 0
}

// joinRoom and leaveRoom mutate the index; callers hold h.mu.

func (h *Hub) joinRoom(room string, client *Client) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

func (h *Hub) leaveRoom(room string, client *Client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
