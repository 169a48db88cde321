package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/mocks"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
	"github.com/solvedesk/helpdesk-backend/internal/core/services"
)

type mailroomFixture struct {
	intake    *mocks.MockTicketIntake
	users     *mocks.MockUserDirectory
	tenants   *mocks.MockTenantDirectory
	publisher *mocks.MockEventPublisher
	fanout    *mocks.MockNotificationFanout
	mailroom  *services.Mailroom
}

func newMailroomFixture() *mailroomFixture {
	f := &mailroomFixture{
		intake:    mocks.NewMockTicketIntake(),
		users:     mocks.NewMockUserDirectory(),
		tenants:   mocks.NewMockTenantDirectory(),
		publisher: mocks.NewMockEventPublisher(),
		fanout:    mocks.NewMockNotificationFanout(),
	}
	announcer := services.NewAnnouncer(f.publisher, f.fanout, slog.Default())
	f.mailroom = services.NewMailroom(f.intake, f.users, f.tenants, announcer, slog.Default())

	// The announcer side effects are not under test here.
	f.publisher.On("Publish", mock.AnythingOfType("domain.Event")).Return().Maybe()
	f.fanout.On("Notify", mock.Anything, mock.AnythingOfType("ports.NotifyParams")).Return().Maybe()
	return f
}

func TestMailroom_ProcessInboundEmail(t *testing.T) {
	ctx := context.Background()
	tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", InboundDomain: "acme.helpdesk.test"}
	sender := &domain.User{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		Email:    "jane@customer.test",
		FullName: "Jane Doe",
		Role:     domain.RoleCustomer,
		IsActive: true,
	}

	t.Run("email without a reference opens a new ticket", func(t *testing.T) {
		f := newMailroomFixture()

		f.tenants.On("ResolveByInboundAddress", ctx, "support@acme.helpdesk.test").Return(tenant, nil)
		f.users.On("FindOrCreateCustomer", ctx, tenant.ID, "jane@customer.test", "Jane Doe").Return(sender, nil)

		ticketID := uuid.New()
		f.intake.On("OpenTicket", ctx, ports.OpenTicketParams{
			TenantID:    tenant.ID,
			CreatorID:   sender.ID,
			Title:       "Printer broken",
			Description: "It just stopped.",
			Priority:    domain.PriorityMedium,
		}).Return(&domain.TicketSnapshot{
			ID:        ticketID,
			Reference: domain.TicketReference(ticketID),
			TenantID:  tenant.ID,
			CreatorID: sender.ID,
			Title:     "Printer broken",
		}, nil)

		result, err := f.mailroom.ProcessInboundEmail(ctx, services.InboundEmail{
			From:    "Jane Doe <jane@customer.test>",
			To:      "support@acme.helpdesk.test",
			Subject: "Printer broken",
			Text:    "It just stopped.\n",
		})

		require.NoError(t, err)
		assert.True(t, result.NewTicket)
		assert.Equal(t, ticketID, result.TicketID)

		f.intake.AssertExpectations(t)
		f.users.AssertExpectations(t)
	})

	t.Run("subject with a reference appends a comment", func(t *testing.T) {
		f := newMailroomFixture()

		ticketID := uuid.MustParse("3f9c2a1b-1111-4111-8111-111111111111")
		ticket := &domain.TicketSnapshot{
			ID:        ticketID,
			Reference: "3f9c2a1b",
			TenantID:  tenant.ID,
			CreatorID: sender.ID,
			Title:     "Printer broken",
		}

		f.tenants.On("ResolveByInboundAddress", ctx, "support@acme.helpdesk.test").Return(tenant, nil)
		f.users.On("FindOrCreateCustomer", ctx, tenant.ID, "jane@customer.test", "Jane Doe").Return(sender, nil)
		f.intake.On("FindByReference", ctx, tenant.ID, "3f9c2a1b").Return(ticket, nil)
		f.intake.On("AddComment", ctx, ports.AddCommentParams{
			TicketID: ticketID,
			AuthorID: sender.ID,
			Body:     "Still broken after restart.",
		}).Return(&domain.CommentSnapshot{
			ID:       uuid.New(),
			TicketID: ticketID,
			AuthorID: sender.ID,
			Body:     "Still broken after restart.",
		}, nil)

		result, err := f.mailroom.ProcessInboundEmail(ctx, services.InboundEmail{
			From:    "Jane Doe <jane@customer.test>",
			To:      "support@acme.helpdesk.test",
			Subject: "Re: Printer broken [#3F9C2A1B]",
			Text:    "Still broken after restart.",
		})

		require.NoError(t, err)
		assert.False(t, result.NewTicket)
		assert.Equal(t, ticketID, result.TicketID)

		f.intake.AssertExpectations(t)
	})

	t.Run("stale reference falls back to a new ticket", func(t *testing.T) {
		f := newMailroomFixture()

		f.tenants.On("ResolveByInboundAddress", ctx, "support@acme.helpdesk.test").Return(tenant, nil)
		f.users.On("FindOrCreateCustomer", ctx, tenant.ID, "jane@customer.test", "Jane Doe").Return(sender, nil)
		f.intake.On("FindByReference", ctx, tenant.ID, "deadbeef").Return(nil, apperrors.ErrTicketNotFound)

		newID := uuid.New()
		f.intake.On("OpenTicket", ctx, mock.AnythingOfType("ports.OpenTicketParams")).
			Return(&domain.TicketSnapshot{
				ID:        newID,
				Reference: domain.TicketReference(newID),
				TenantID:  tenant.ID,
				CreatorID: sender.ID,
			}, nil)

		result, err := f.mailroom.ProcessInboundEmail(ctx, services.InboundEmail{
			From:    "Jane Doe <jane@customer.test>",
			To:      "support@acme.helpdesk.test",
			Subject: "Re: Old issue [#deadbeef]",
			Text:    "Is anyone there?",
		})

		require.NoError(t, err)
		assert.True(t, result.NewTicket)
		assert.Equal(t, newID, result.TicketID)
	})

	t.Run("unknown recipient domain is rejected", func(t *testing.T) {
		f := newMailroomFixture()

		f.tenants.On("ResolveByInboundAddress", ctx, "support@nobody.test").
			Return(nil, apperrors.ErrTenantNotFound)

		result, err := f.mailroom.ProcessInboundEmail(ctx, services.InboundEmail{
			From:    "jane@customer.test",
			To:      "support@nobody.test",
			Subject: "Hello",
			Text:    "Anyone?",
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRecipient)
	})

	t.Run("missing sender is rejected", func(t *testing.T) {
		f := newMailroomFixture()

		result, err := f.mailroom.ProcessInboundEmail(ctx, services.InboundEmail{
			To:      "support@acme.helpdesk.test",
			Subject: "Hello",
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrEmptySender)
	})

	t.Run("empty subject is rejected", func(t *testing.T) {
		f := newMailroomFixture()

		result, err := f.mailroom.ProcessInboundEmail(ctx, services.InboundEmail{
			From:    "jane@customer.test",
			To:      "support@acme.helpdesk.test",
			Subject: "   ",
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrEmptySubject)
	})
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "jane@customer.test", services.ExtractAddress("Jane Doe <jane@customer.test>"))
	assert.Equal(t, "jane@customer.test", services.ExtractAddress("jane@customer.test"))
	assert.Equal(t, "jane@customer.test", services.ExtractAddress("  jane@customer.test  "))
	assert.Equal(t, "", services.ExtractAddress(""))
}

func TestExtractReference(t *testing.T) {
	ref, ok := services.ExtractReference("Re: Printer broken [#3F9C2A1B]")
	assert.True(t, ok)
	assert.Equal(t, "3f9c2a1b", ref)

	_, ok = services.ExtractReference("Printer broken")
	assert.False(t, ok)

	// Too-short tags are not references.
	_, ok = services.ExtractReference("Weird tag [#3f9c]")
	assert.False(t, ok)
}
