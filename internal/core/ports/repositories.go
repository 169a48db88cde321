package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
)

// UserDirectory resolves helpdesk participants. The fan-out coordinator uses
// it to look up recipient addresses and roles; the mailroom uses it to match
// or provision senders of inbound email.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error)

	// FindOrCreateCustomer returns the user with the given address,
	// provisioning a CUSTOMER account when no match exists. Inbound email
	// from unknown senders is how customers first appear.
	FindOrCreateCustomer(ctx context.Context, tenantID uuid.UUID, email, fullName string) (*domain.User, error)
}

// TenantDirectory maps inbound support addresses to tenants.
type TenantDirectory interface {
	// ResolveByInboundAddress matches the recipient of an inbound email,
	// e.g. support@acme.helpdesk.example, to its tenant.
	ResolveByInboundAddress(ctx context.Context, address string) (*domain.Tenant, error)
}

// OpenTicketParams is the input for opening a ticket from inbound email.
type OpenTicketParams struct {
	TenantID    uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// AddCommentParams is the input for appending a comment from inbound email.
type AddCommentParams struct {
	TicketID   uuid.UUID
	AuthorID   uuid.UUID
	Body       string
	IsInternal bool
}

// TicketIntake is the boundary to the ticket store for the inbound email
// path. The wider CRUD surface lives behind its own services; the mailroom
// needs only these three operations.
type TicketIntake interface {
	OpenTicket(ctx context.Context, params OpenTicketParams) (*domain.TicketSnapshot, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*domain.TicketSnapshot, error)
	AddComment(ctx context.Context, params AddCommentParams) (*domain.CommentSnapshot, error)
}
