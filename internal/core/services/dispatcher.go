package services

import (
	"log/slog"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// EventDispatcher resolves a canonical event to its audience rooms and pushes
// it to every live member. It is stateless between calls: it holds no queue,
// and an event targeting an empty room is simply dropped for the live channel.
// The notification fan-out is the durability backstop for offline parties.
type EventDispatcher struct {
	broadcaster ports.LiveBroadcaster
	logger      *slog.Logger
}

var _ ports.EventPublisher = (*EventDispatcher)(nil)

// NewEventDispatcher creates a dispatcher over the given live channel.
func NewEventDispatcher(broadcaster ports.LiveBroadcaster, logger *slog.Logger) *EventDispatcher {
	return &EventDispatcher{
		broadcaster: broadcaster,
		logger:      logger.With("component", "event_dispatcher"),
	}
}

// Publish delivers the event to the tenant room and, for targeted kinds, to
// the target user's room as well. A connection that is a member of both rooms
// receives one envelope per room. Within one room, connections that observe
// two sequential Publish calls observe them in call order.
func (d *EventDispatcher) Publish(event domain.Event) {
	rooms := []string{domain.TenantRoom(event.TenantID)}
	if event.TargetUserID != nil {
		rooms = append(rooms, domain.UserRoom(*event.TargetUserID))
	}

	for _, room := range rooms {
		d.broadcaster.Broadcast(room, event)
	}

	d.logger.Debug("event published",
		"kind", event.Kind,
		"tenant_id", event.TenantID,
		"rooms", len(rooms),
	)
}
