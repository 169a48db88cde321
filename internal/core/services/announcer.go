package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// Announcer is the single interface domain operations call after their
// durable write commits. For each fact it drives both delivery channels:
// the live publish runs synchronously in the caller's goroutine, the email
// fan-out on a detached goroutine with a background context so the caller's
// response never waits on the email collaborator. Neither channel is skipped
// because the other failed.
type Announcer struct {
	mapper    EventMapper
	publisher ports.EventPublisher
	fanout    ports.NotificationFanout
	logger    *slog.Logger
}

// NewAnnouncer wires the dual-channel announcer.
func NewAnnouncer(publisher ports.EventPublisher, fanout ports.NotificationFanout, logger *slog.Logger) *Announcer {
	return &Announcer{
		publisher: publisher,
		fanout:    fanout,
		logger:    logger.With("component", "announcer"),
	}
}

// TicketCreated announces a newly opened ticket.
func (a *Announcer) TicketCreated(ctx context.Context, ticket domain.TicketSnapshot) {
	event := a.mapper.TicketCreated(ticket)
	a.publisher.Publish(event)
	a.notify(ports.NotifyParams{
		Event:   event,
		Ticket:  ticket,
		ActorID: ticket.CreatorID,
	})
}

// TicketUpdated announces a ticket change. changes lists the material field
// changes; an empty list produces the live event but no email candidates.
func (a *Announcer) TicketUpdated(ctx context.Context, ticket domain.TicketSnapshot, actorID uuid.UUID, changes []string) {
	event := a.mapper.TicketUpdated(ticket)
	a.publisher.Publish(event)
	a.notify(ports.NotifyParams{
		Event:   event,
		Ticket:  ticket,
		ActorID: actorID,
		Changes: changes,
	})
}

// TicketAssigned announces an assignment: ticket:updated for the tenant,
// ticket:assigned targeted at the assignee, and the assignee's email.
func (a *Announcer) TicketAssigned(ctx context.Context, ticket domain.TicketSnapshot, actorID uuid.UUID) {
	events := a.mapper.TicketAssigned(ticket)
	var assigned domain.Event
	for _, event := range events {
		a.publisher.Publish(event)
		if event.Kind == domain.EventTicketAssigned {
			assigned = event
		}
	}
	if assigned.Kind == "" {
		return
	}
	a.notify(ports.NotifyParams{
		Event:   assigned,
		Ticket:  ticket,
		ActorID: actorID,
	})
}

// CommentCreated announces a new comment: comment:created for the tenant
// room, a targeted notification event for the ticket creator and assignee
// when they are not the author, and the email fan-out.
func (a *Announcer) CommentCreated(ctx context.Context, comment domain.CommentSnapshot, ticket domain.TicketSnapshot) {
	event := a.mapper.CommentCreated(comment, ticket)
	a.publisher.Publish(event)

	if ticket.CreatorID != comment.AuthorID {
		a.publisher.Publish(a.mapper.UserNotification(
			ticket.TenantID, ticket.CreatorID,
			newCommentMessage(ticket, comment.AuthorName, false),
		))
	}
	if assignee := ticket.AssigneeID; assignee != nil && *assignee != comment.AuthorID && *assignee != ticket.CreatorID {
		a.publisher.Publish(a.mapper.UserNotification(
			ticket.TenantID, *assignee,
			newCommentMessage(ticket, comment.AuthorName, true),
		))
	}

	snapshot := comment
	a.notify(ports.NotifyParams{
		Event:   event,
		Ticket:  ticket,
		Comment: &snapshot,
		ActorID: comment.AuthorID,
	})
}

// notify runs the email fan-out without blocking the caller. A panic in the
// fan-out is contained here; the live channel has already been served.
func (a *Announcer) notify(params ports.NotifyParams) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("notification fan-out panicked",
					"event_kind", params.Event.Kind,
					"ticket_id", params.Ticket.ID,
					"panic", r,
				)
			}
		}()
		a.fanout.Notify(context.Background(), params)
	}()
}
