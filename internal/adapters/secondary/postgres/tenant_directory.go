package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

type TenantDirectory struct {
	pool *pgxpool.Pool
}

var _ ports.TenantDirectory = (*TenantDirectory)(nil)

func NewTenantDirectory(pool *pgxpool.Pool) ports.TenantDirectory {
	return &TenantDirectory{pool: pool}
}

// ResolveByInboundAddress matches the domain part of an inbound recipient
// address, e.g. support@acme.helpdesk.example, against tenant inbound domains.
func (d *TenantDirectory) ResolveByInboundAddress(ctx context.Context, address string) (*domain.Tenant, error) {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return nil, apperrors.ErrTenantNotFound
	}
	domainPart := strings.ToLower(address[at+1:])

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
		tenant    domain.Tenant
	)
	err := d.pool.QueryRow(ctx,
		`SELECT id, name, inbound_domain, created_at FROM tenants WHERE inbound_domain = $1`,
		domainPart,
	).Scan(&id, &tenant.Name, &tenant.InboundDomain, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, err
	}
	tenant.ID = uuid.UUID(id.Bytes)
	tenant.CreatedAt = createdAt.Time
	return &tenant, nil
}
