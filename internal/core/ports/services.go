package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
)

// IdentityVerifier authenticates a transport-level credential into a verified
// identity. Implementations must return apperrors.ErrAuthentication for a
// bad, missing or expired credential and apperrors.ErrInactiveAccount for a
// valid credential whose account is disabled.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.Identity, error)
}

// LiveBroadcaster is the live-channel delivery surface the dispatcher pushes
// through. Delivery to each member connection is best-effort; implementations
// must never fail the call because one connection could not be written.
type LiveBroadcaster interface {
	Broadcast(room string, event domain.Event)
}

// EventPublisher is the single entry point domain operations use to announce
// a committed fact on the live channel.
type EventPublisher interface {
	Publish(event domain.Event)
}

// NotifyParams carries an event and the domain context the fan-out
// coordinator needs to compute interested recipients.
type NotifyParams struct {
	Event   domain.Event
	Ticket  domain.TicketSnapshot
	Comment *domain.CommentSnapshot

	// ActorID is the user whose action produced the event.
	ActorID uuid.UUID

	// Changes lists the material field changes behind a ticket:updated
	// event, e.g. "Status changed from OPEN to RESOLVED".
	Changes []string
}

// NotificationFanout drives at-least-once email notification of interested
// parties, independent of live delivery. It never reports failure upward:
// per-recipient errors are logged and the rest of the fan-out proceeds.
type NotificationFanout interface {
	Notify(ctx context.Context, params NotifyParams)
}

// TemplateKind selects the outbound email template.
type TemplateKind string

const (
	TemplateTicketCreated  TemplateKind = "ticket_created"
	TemplateTicketUpdated  TemplateKind = "ticket_updated"
	TemplateTicketAssigned TemplateKind = "ticket_assigned"
	TemplateCommentAdded   TemplateKind = "comment_added"
)

// TemplateData is the data handed to the email collaborator. Template
// rendering, provider selection and retry policy are the collaborator's
// concern, not the core's.
type TemplateData struct {
	RecipientName string
	Ticket        domain.TicketSnapshot
	Comment       *domain.CommentSnapshot
	Changes       []string
}

// EmailSender is the external notification collaborator.
type EmailSender interface {
	Send(ctx context.Context, recipient string, kind TemplateKind, data TemplateData) error
}
