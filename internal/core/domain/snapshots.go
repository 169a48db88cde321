package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus enumerates the ticket lifecycle states.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates ticket priorities.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
	PriorityUrgent TicketPriority = "URGENT"
)

// TicketSnapshot is the plain-data view of a ticket used as an event payload
// and as notification template data. It is constructed by the domain layer
// after its write commits; the event core never fetches additional data to
// serve it.
type TicketSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	Reference   string     `json:"reference"`
	TenantID    uuid.UUID  `json:"tenantId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatorID   uuid.UUID  `json:"creatorId"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   *string    `json:"updatedAt"`
}

// CommentSnapshot is the plain-data view of a ticket comment.
type CommentSnapshot struct {
	ID         uuid.UUID `json:"id"`
	TicketID   uuid.UUID `json:"ticketId"`
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  string    `json:"createdAt"`
}

// CommentEventPayload is the comment:created wire payload. The ticket id is
// lifted alongside the comment so clients can route without unpacking it.
type CommentEventPayload struct {
	Comment  CommentSnapshot `json:"comment"`
	TicketID uuid.UUID       `json:"ticketId"`
}

// NotificationMessage is the generic user-targeted notification payload.
type NotificationMessage struct {
	Type     string    `json:"type"`
	TicketID uuid.UUID `json:"ticketId"`
	Message  string    `json:"message"`
	From     string    `json:"from,omitempty"`
}

// SessionInfo is sent to a client right after successful registration.
type SessionInfo struct {
	Message string      `json:"message"`
	User    SessionUser `json:"user"`
}

// SessionUser is the identity echo inside SessionInfo.
type SessionUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	TenantID uuid.UUID `json:"tenantId"`
}

// TicketReference derives the short reference code embedded in email
// subjects, e.g. "[#3f9c2a1b]". It is the first 8 hex characters of the
// ticket id, which is how replies are matched back to tickets.
func TicketReference(ticketID uuid.UUID) string {
	return strings.ReplaceAll(ticketID.String(), "-", "")[:8]
}

// FormatTime renders timestamps the way snapshots carry them.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
