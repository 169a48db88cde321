package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/mocks"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
	"github.com/solvedesk/helpdesk-backend/internal/core/services"
)

func staffUser(id uuid.UUID, email string) *domain.User {
	return &domain.User{
		ID:       id,
		Email:    email,
		FullName: "Agent " + email,
		Role:     domain.RoleAgent,
		IsActive: true,
	}
}

func customerUser(id uuid.UUID, email string) *domain.User {
	return &domain.User{
		ID:       id,
		Email:    email,
		FullName: "Customer " + email,
		Role:     domain.RoleCustomer,
		IsActive: true,
	}
}

func TestNotificationCoordinator_Notify(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	creatorID := uuid.New()
	assigneeID := uuid.New()
	actorID := uuid.New()

	baseTicket := domain.TicketSnapshot{
		ID:        uuid.New(),
		Reference: "3f9c2a1b",
		TenantID:  tenantID,
		Title:     "VPN down",
		CreatorID: creatorID,
	}

	t.Run("ticket created notifies the creator", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		directory.On("GetByID", ctx, creatorID).Return(customerUser(creatorID, "creator@acme.test"), nil)
		sender.On("Send", ctx, "creator@acme.test", ports.TemplateTicketCreated, mock.Anything).Return(nil)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventTicketCreated, TenantID: tenantID},
			Ticket:  baseTicket,
			ActorID: creatorID,
		})

		directory.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("comment notifies creator and assignee but never the author", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		ticket := baseTicket
		ticket.AssigneeID = &assigneeID

		directory.On("GetByID", ctx, creatorID).Return(customerUser(creatorID, "creator@acme.test"), nil)
		directory.On("GetByID", ctx, assigneeID).Return(staffUser(assigneeID, "agent@helpdesk.test"), nil)
		sender.On("Send", ctx, "creator@acme.test", ports.TemplateCommentAdded, mock.Anything).Return(nil)
		sender.On("Send", ctx, "agent@helpdesk.test", ports.TemplateCommentAdded, mock.Anything).Return(nil)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventCommentCreated, TenantID: tenantID},
			Ticket:  ticket,
			Comment: &domain.CommentSnapshot{ID: uuid.New(), AuthorID: actorID, Body: "on it"},
			ActorID: actorID,
		})

		sender.AssertNumberOfCalls(t, "Send", 2)
		sender.AssertExpectations(t)
	})

	t.Run("comment by the creator notifies only the assignee", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		ticket := baseTicket
		ticket.AssigneeID = &assigneeID

		directory.On("GetByID", ctx, assigneeID).Return(staffUser(assigneeID, "agent@helpdesk.test"), nil)
		sender.On("Send", ctx, "agent@helpdesk.test", ports.TemplateCommentAdded, mock.Anything).Return(nil)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventCommentCreated, TenantID: tenantID},
			Ticket:  ticket,
			Comment: &domain.CommentSnapshot{ID: uuid.New(), AuthorID: creatorID, Body: "still broken"},
			ActorID: creatorID,
		})

		sender.AssertNumberOfCalls(t, "Send", 1)
		sender.AssertExpectations(t)
	})

	t.Run("internal comment is suppressed for customer recipients", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		ticket := baseTicket
		ticket.AssigneeID = &assigneeID

		directory.On("GetByID", ctx, creatorID).Return(customerUser(creatorID, "creator@acme.test"), nil)
		directory.On("GetByID", ctx, assigneeID).Return(staffUser(assigneeID, "agent@helpdesk.test"), nil)
		// Only the staff assignee may hear about the internal note.
		sender.On("Send", ctx, "agent@helpdesk.test", ports.TemplateCommentAdded, mock.Anything).Return(nil)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventCommentCreated, TenantID: tenantID},
			Ticket:  ticket,
			Comment: &domain.CommentSnapshot{ID: uuid.New(), AuthorID: actorID, IsInternal: true},
			ActorID: actorID,
		})

		sender.AssertNumberOfCalls(t, "Send", 1)
		sender.AssertExpectations(t)
	})

	t.Run("assignment notifies the assignee", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		ticket := baseTicket
		ticket.AssigneeID = &assigneeID

		directory.On("GetByID", ctx, assigneeID).Return(staffUser(assigneeID, "agent@helpdesk.test"), nil)
		sender.On("Send", ctx, "agent@helpdesk.test", ports.TemplateTicketAssigned, mock.Anything).Return(nil)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventTicketAssigned, TenantID: tenantID, TargetUserID: &assigneeID},
			Ticket:  ticket,
			ActorID: actorID,
		})

		sender.AssertExpectations(t)
	})

	t.Run("update without material changes notifies nobody", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventTicketUpdated, TenantID: tenantID},
			Ticket:  baseTicket,
			ActorID: actorID,
			Changes: nil,
		})

		sender.AssertNumberOfCalls(t, "Send", 0)
		directory.AssertNumberOfCalls(t, "GetByID", 0)
	})

	t.Run("self-update notifies nobody", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventTicketUpdated, TenantID: tenantID},
			Ticket:  baseTicket,
			ActorID: creatorID,
			Changes: []string{"Status changed from OPEN to RESOLVED"},
		})

		sender.AssertNumberOfCalls(t, "Send", 0)
	})

	t.Run("one failed recipient does not stop the rest", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		ticket := baseTicket
		ticket.AssigneeID = &assigneeID

		directory.On("GetByID", ctx, creatorID).Return(customerUser(creatorID, "creator@acme.test"), nil)
		directory.On("GetByID", ctx, assigneeID).Return(staffUser(assigneeID, "agent@helpdesk.test"), nil)
		sender.On("Send", ctx, "creator@acme.test", ports.TemplateCommentAdded, mock.Anything).
			Return(errors.New("smtp: connection refused"))
		sender.On("Send", ctx, "agent@helpdesk.test", ports.TemplateCommentAdded, mock.Anything).Return(nil)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventCommentCreated, TenantID: tenantID},
			Ticket:  ticket,
			Comment: &domain.CommentSnapshot{ID: uuid.New(), AuthorID: actorID, Body: "checking"},
			ActorID: actorID,
		})

		sender.AssertNumberOfCalls(t, "Send", 2)
		sender.AssertExpectations(t)
	})

	t.Run("unresolvable recipient is skipped", func(t *testing.T) {
		directory := mocks.NewMockUserDirectory()
		sender := mocks.NewMockEmailSender()
		coordinator := services.NewNotificationCoordinator(directory, sender, slog.Default())

		directory.On("GetByID", ctx, creatorID).Return(nil, apperrors.ErrUserNotFound)

		coordinator.Notify(ctx, ports.NotifyParams{
			Event:   domain.Event{Kind: domain.EventTicketCreated, TenantID: tenantID},
			Ticket:  baseTicket,
			ActorID: actorID,
		})

		sender.AssertNumberOfCalls(t, "Send", 0)
	})
}
