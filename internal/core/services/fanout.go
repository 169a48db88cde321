package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// NotificationCoordinator computes the interested parties for an event and
// attempts an email notification to each, independent of whether the party is
// currently live-connected. Failures are isolated per recipient: a lookup or
// send error for one party is logged and the rest of the fan-out proceeds.
// The coordinator never raises an error to the domain operation that
// triggered it; a dead email channel degrades the system to live-only.
type NotificationCoordinator struct {
	directory ports.UserDirectory
	sender    ports.EmailSender
	logger    *slog.Logger
}

var _ ports.NotificationFanout = (*NotificationCoordinator)(nil)

// NewNotificationCoordinator creates the fan-out coordinator.
func NewNotificationCoordinator(directory ports.UserDirectory, sender ports.EmailSender, logger *slog.Logger) *NotificationCoordinator {
	return &NotificationCoordinator{
		directory: directory,
		sender:    sender,
		logger:    logger.With("component", "notification_fanout"),
	}
}

// candidate is one potentially interested party, before suppression.
type candidate struct {
	userID   uuid.UUID
	template ports.TemplateKind
}

// notificationTask is a resolved intent to notify one party about one event.
// Tasks are ephemeral: built, attempted once, discarded. Retry, if wanted,
// belongs to the email collaborator.
type notificationTask struct {
	recipient *domain.User
	template  ports.TemplateKind
	data      ports.TemplateData
}

// Notify fans the event out to every interested recipient.
func (c *NotificationCoordinator) Notify(ctx context.Context, params ports.NotifyParams) {
	for _, cand := range c.candidates(params) {
		task, ok := c.buildTask(ctx, cand, params)
		if !ok {
			continue
		}

		if err := c.sender.Send(ctx, task.recipient.Email, task.template, task.data); err != nil {
			c.logger.Error("notification delivery failed",
				"recipient", task.recipient.Email,
				"template", task.template,
				"event_kind", params.Event.Kind,
				"ticket_id", params.Ticket.ID,
				"error", err,
			)
			continue
		}

		c.logger.Info("notification sent",
			"recipient", task.recipient.Email,
			"template", task.template,
			"ticket_id", params.Ticket.ID,
		)
	}
}

// candidates applies the event-kind-specific recipient rules. The rules are
// one consistent table rather than per-call-site variations: the creator is
// told about their ticket's progress, the assignee about work addressed to
// them, and nobody is notified about their own action.
func (c *NotificationCoordinator) candidates(params ports.NotifyParams) []candidate {
	ticket := params.Ticket

	switch params.Event.Kind {
	case domain.EventTicketCreated:
		return []candidate{{userID: ticket.CreatorID, template: ports.TemplateTicketCreated}}

	case domain.EventCommentCreated:
		var out []candidate
		if ticket.CreatorID != params.ActorID {
			out = append(out, candidate{userID: ticket.CreatorID, template: ports.TemplateCommentAdded})
		}
		if a := ticket.AssigneeID; a != nil && *a != params.ActorID && *a != ticket.CreatorID {
			out = append(out, candidate{userID: *a, template: ports.TemplateCommentAdded})
		}
		return out

	case domain.EventTicketAssigned:
		if ticket.AssigneeID == nil {
			return nil
		}
		return []candidate{{userID: *ticket.AssigneeID, template: ports.TemplateTicketAssigned}}

	case domain.EventTicketUpdated:
		if len(params.Changes) == 0 || ticket.CreatorID == params.ActorID {
			return nil
		}
		return []candidate{{userID: ticket.CreatorID, template: ports.TemplateTicketUpdated}}
	}

	return nil
}

// buildTask resolves the candidate to a concrete recipient and applies
// suppression. A false return means the candidate is skipped.
func (c *NotificationCoordinator) buildTask(ctx context.Context, cand candidate, params ports.NotifyParams) (notificationTask, bool) {
	recipient, err := c.directory.GetByID(ctx, cand.userID)
	if err != nil {
		c.logger.Error("failed to resolve notification recipient",
			"user_id", cand.userID,
			"event_kind", params.Event.Kind,
			"error", err,
		)
		return notificationTask{}, false
	}

	// Internal comments must never reach customer recipients.
	if params.Comment != nil && params.Comment.IsInternal && recipient.Role == domain.RoleCustomer {
		c.logger.Debug("notification suppressed for internal comment",
			"user_id", recipient.ID,
			"ticket_id", params.Ticket.ID,
		)
		return notificationTask{}, false
	}

	return notificationTask{
		recipient: recipient,
		template:  cand.template,
		data: ports.TemplateData{
			RecipientName: recipient.FullName,
			Ticket:        params.Ticket,
			Comment:       params.Comment,
			Changes:       params.Changes,
		},
	}, true
}
