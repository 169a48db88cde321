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

type UserDirectory struct {
	pool *pgxpool.Pool
}

var _ ports.UserDirectory = (*UserDirectory)(nil)

func NewUserDirectory(pool *pgxpool.Pool) ports.UserDirectory {
	return &UserDirectory{pool: pool}
}

const userColumns = `id, tenant_id, email, full_name, role, is_active, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		id        pgtype.UUID
		tenantID  pgtype.UUID
		createdAt pgtype.Timestamptz
		user      domain.User
	)
	err := row.Scan(&id, &tenantID, &user.Email, &user.FullName, &user.Role, &user.IsActive, &createdAt)
	if err != nil {
		return nil, err
	}
	user.ID = uuid.UUID(id.Bytes)
	user.TenantID = uuid.UUID(tenantID.Bytes)
	user.CreatedAt = createdAt.Time
	return &user, nil
}

func (d *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		pgUUID(id),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (d *UserDirectory) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)`,
		pgUUID(tenantID), email,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// FindOrCreateCustomer provisions a CUSTOMER account for an unknown sender.
// The upsert returns the existing row when two inbound emails from the same
// address race.
func (d *UserDirectory) FindOrCreateCustomer(ctx context.Context, tenantID uuid.UUID, email, fullName string) (*domain.User, error) {
	row := d.pool.QueryRow(ctx,
		`INSERT INTO users (id, tenant_id, email, full_name, role, is_active)
		 VALUES ($1, $2, lower($3), $4, $5, true)
		 ON CONFLICT (tenant_id, email) DO UPDATE SET email = users.email
		 RETURNING `+userColumns,
		pgUUID(uuid.New()), pgUUID(tenantID), email, fullName, domain.RoleCustomer,
	)
	return scanUser(row)
}
