package domain

import (
	"github.com/google/uuid"
)

// EventKind identifies the kind of real-time event. The string values are the
// wire names existing clients listen for and must not change.
type EventKind string

const (
	EventTicketCreated  EventKind = "ticket:created"
	EventTicketUpdated  EventKind = "ticket:updated"
	EventTicketAssigned EventKind = "ticket:assigned"
	EventCommentCreated EventKind = "comment:created"
	EventNotification   EventKind = "notification"

	// Session-level kinds, never produced by domain operations.
	KindConnected EventKind = "connected"
	KindPong      EventKind = "pong"
)

// Event is an immutable fact describing a domain change. The underlying write
// has already committed by the time an Event exists; the event itself is
// fire-and-forget and never persisted.
type Event struct {
	Kind     EventKind
	TenantID uuid.UUID

	// TargetUserID is set for kinds addressed to one user's room in
	// addition to the tenant room (ticket:assigned, notification).
	TargetUserID *uuid.UUID

	// Payload is an opaque, JSON-serializable domain snapshot. The core
	// never dereferences it beyond serialization.
	Payload any
}

// Envelope is the wire shape pushed to a live connection.
type Envelope struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload"`
}

// Envelope returns the wire representation of the event.
func (e Event) Envelope() Envelope {
	return Envelope{Kind: e.Kind, Payload: e.Payload}
}

// TenantRoom returns the broadcast room holding every authenticated
// connection of a tenant. The naming convention is part of the client
// protocol.
func TenantRoom(tenantID uuid.UUID) string {
	return "tenant:" + tenantID.String()
}

// UserRoom returns the broadcast room holding all of one user's
// simultaneous connections.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// RoomsFor derives the canonical room set for an identity. A connection
// belongs to exactly these two rooms for its whole lifetime.
func RoomsFor(id Identity) (tenantRoom, userRoom string) {
	return TenantRoom(id.TenantID), UserRoom(id.UserID)
}
