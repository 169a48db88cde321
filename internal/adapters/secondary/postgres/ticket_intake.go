package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

type TicketIntake struct {
	pool *pgxpool.Pool
}

var _ ports.TicketIntake = (*TicketIntake)(nil)

func NewTicketIntake(pool *pgxpool.Pool) ports.TicketIntake {
	return &TicketIntake{pool: pool}
}

const ticketColumns = `id, reference, tenant_id, title, description, status, priority,
	creator_id, assignee_id, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.TicketSnapshot, error) {
	var (
		id         pgtype.UUID
		tenantID   pgtype.UUID
		creatorID  pgtype.UUID
		assigneeID pgtype.UUID
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
		t          domain.TicketSnapshot
	)
	err := row.Scan(&id, &t.Reference, &tenantID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &creatorID, &assigneeID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.ID = uuid.UUID(id.Bytes)
	t.TenantID = uuid.UUID(tenantID.Bytes)
	t.CreatorID = uuid.UUID(creatorID.Bytes)
	t.AssigneeID = fromPgUUIDPtr(assigneeID)
	t.CreatedAt = domain.FormatTime(createdAt.Time)
	t.UpdatedAt = fromPgTimestampPtr(updatedAt)
	return &t, nil
}

// OpenTicket creates a ticket row. The short reference is derived from the
// generated id and stored denormalized so reply matching is a plain lookup.
func (r *TicketIntake) OpenTicket(ctx context.Context, params ports.OpenTicketParams) (*domain.TicketSnapshot, error) {
	id := uuid.New()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tickets (id, reference, tenant_id, title, description, status, priority, creator_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+ticketColumns,
		pgUUID(id), domain.TicketReference(id), pgUUID(params.TenantID),
		params.Title, params.Description, domain.StatusOpen, params.Priority,
		pgUUID(params.CreatorID),
	)
	return scanTicket(row)
}

func (r *TicketIntake) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*domain.TicketSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE tenant_id = $1 AND reference = lower($2)`,
		pgUUID(tenantID), reference,
	)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// AddComment appends a comment and touches the ticket's updated_at so the
// live channel and list views agree on recency.
func (r *TicketIntake) AddComment(ctx context.Context, params ports.AddCommentParams) (*domain.CommentSnapshot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		id        pgtype.UUID
		ticketID  pgtype.UUID
		authorID  pgtype.UUID
		createdAt pgtype.Timestamptz
		c         domain.CommentSnapshot
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO comments (id, ticket_id, author_id, body, is_internal)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, ticket_id, author_id, body, is_internal, created_at`,
		pgUUID(uuid.New()), pgUUID(params.TicketID), pgUUID(params.AuthorID),
		params.Body, params.IsInternal,
	).Scan(&id, &ticketID, &authorID, &c.Body, &c.IsInternal, &createdAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE tickets SET updated_at = now() WHERE id = $1`,
		pgUUID(params.TicketID),
	)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx,
		`SELECT full_name FROM users WHERE id = $1`,
		pgUUID(params.AuthorID),
	).Scan(&c.AuthorName)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.TicketID = uuid.UUID(ticketID.Bytes)
	c.AuthorID = uuid.UUID(authorID.Bytes)
	c.CreatedAt = domain.FormatTime(createdAt.Time)
	return &c, nil
}
