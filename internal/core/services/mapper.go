package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
)

// EventMapper translates completed domain writes into the canonical event
// shape the dispatcher consumes. It isolates the event core from the
// internals of whichever operation produced the fact: callers hand over plain
// snapshots, never live entities.
type EventMapper struct{}

// TicketCreated maps a freshly opened ticket to its tenant-wide event.
func (EventMapper) TicketCreated(ticket domain.TicketSnapshot) domain.Event {
	return domain.Event{
		Kind:     domain.EventTicketCreated,
		TenantID: ticket.TenantID,
		Payload:  ticket,
	}
}

// TicketUpdated maps a ticket change to its tenant-wide event.
func (EventMapper) TicketUpdated(ticket domain.TicketSnapshot) domain.Event {
	return domain.Event{
		Kind:     domain.EventTicketUpdated,
		TenantID: ticket.TenantID,
		Payload:  ticket,
	}
}

// TicketAssigned maps an assignment to its event pair: ticket:assigned
// targeted at the assignee's user room, plus ticket:updated for the tenant
// room, so the rest of the tenant sees the ticket change without the
// assignment-specific push.
func (m EventMapper) TicketAssigned(ticket domain.TicketSnapshot) []domain.Event {
	events := []domain.Event{m.TicketUpdated(ticket)}
	if ticket.AssigneeID != nil {
		assignee := *ticket.AssigneeID
		events = append(events, domain.Event{
			Kind:         domain.EventTicketAssigned,
			TenantID:     ticket.TenantID,
			TargetUserID: &assignee,
			Payload:      ticket,
		})
	}
	return events
}

// CommentCreated maps a new comment to its tenant-wide event.
func (EventMapper) CommentCreated(comment domain.CommentSnapshot, ticket domain.TicketSnapshot) domain.Event {
	return domain.Event{
		Kind:     domain.EventCommentCreated,
		TenantID: ticket.TenantID,
		Payload: domain.CommentEventPayload{
			Comment:  comment,
			TicketID: ticket.ID,
		},
	}
}

// UserNotification maps a structured notification to a user-targeted event.
func (EventMapper) UserNotification(tenantID, userID uuid.UUID, msg domain.NotificationMessage) domain.Event {
	return domain.Event{
		Kind:         domain.EventNotification,
		TenantID:     tenantID,
		TargetUserID: &userID,
		Payload:      msg,
	}
}

// newCommentMessage builds the user-room notification for a new comment.
func newCommentMessage(ticket domain.TicketSnapshot, authorName string, assigned bool) domain.NotificationMessage {
	text := fmt.Sprintf("New comment on ticket: %s", ticket.Title)
	if assigned {
		text = fmt.Sprintf("New comment on assigned ticket: %s", ticket.Title)
	}
	return domain.NotificationMessage{
		Type:     "new_comment",
		TicketID: ticket.ID,
		Message:  text,
		From:     authorName,
	}
}
