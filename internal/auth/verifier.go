package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// Verifier turns a bearer credential into a verified connection identity.
// Token validation alone is not enough: the account behind a valid token may
// have been disabled since issuance, so the directory is consulted on every
// connect.
type Verifier struct {
	tm     *TokenManager
	users  ports.UserDirectory
	logger *slog.Logger
}

var _ ports.IdentityVerifier = (*Verifier)(nil)

// NewVerifier creates an identity verifier over the token manager and the
// user directory.
func NewVerifier(tm *TokenManager, users ports.UserDirectory, logger *slog.Logger) *Verifier {
	return &Verifier{
		tm:     tm,
		users:  users,
		logger: logger.With("component", "identity_verifier"),
	}
}

// Verify validates the credential and resolves the live account state.
func (v *Verifier) Verify(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, apperrors.ErrAuthentication
	}

	claims, err := v.tm.ValidateToken(credential)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", apperrors.ErrAuthentication, err)
	}

	user, err := v.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: unknown subject", apperrors.ErrAuthentication)
	}

	if !user.IsActive {
		// Security-relevant: a disabled account presented a valid token.
		v.logger.Warn("inactive account attempted to connect",
			"user_id", user.ID,
			"tenant_id", user.TenantID,
		)
		return domain.Identity{}, apperrors.ErrInactiveAccount
	}

	return user.Identity(), nil
}
