package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by every identity.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// IsStaff reports whether the role belongs to helpdesk staff.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgent
}

// Identity is the verified principal behind a live connection or an API call.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
	Email    string
	IsActive bool
}

// User is a directory record for a helpdesk participant.
type User struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	FullName  string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
}

// Identity derives the connection identity for a directory user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Role:     u.Role,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}

// Tenant is an isolated customer organization. Inbound support email is
// routed to a tenant by matching the recipient address domain.
type Tenant struct {
	ID            uuid.UUID
	Name          string
	InboundDomain string
	CreatedAt     time.Time
}
