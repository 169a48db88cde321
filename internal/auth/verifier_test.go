package auth_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvedesk/helpdesk-backend/internal/auth"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/mocks"
)

func TestVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	tm := auth.NewTokenManager("test-secret-key-for-unit-tests", time.Hour)
	userID := uuid.New()
	tenantID := uuid.New()

	activeUser := &domain.User{
		ID:       userID,
		TenantID: tenantID,
		Email:    "agent@helpdesk.test",
		FullName: "Sam Agent",
		Role:     domain.RoleAgent,
		IsActive: true,
	}

	t.Run("valid token for active account", func(t *testing.T) {
		users := mocks.NewMockUserDirectory()
		verifier := auth.NewVerifier(tm, users, slog.Default())

		token, err := tm.GenerateToken(userID, tenantID, domain.RoleAgent)
		require.NoError(t, err)

		users.On("GetByID", ctx, userID).Return(activeUser, nil)

		identity, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, tenantID, identity.TenantID)
		assert.Equal(t, domain.RoleAgent, identity.Role)
		assert.Equal(t, "agent@helpdesk.test", identity.Email)
	})

	t.Run("empty credential", func(t *testing.T) {
		users := mocks.NewMockUserDirectory()
		verifier := auth.NewVerifier(tm, users, slog.Default())

		_, err := verifier.Verify(ctx, "")
		assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	})

	t.Run("malformed token", func(t *testing.T) {
		users := mocks.NewMockUserDirectory()
		verifier := auth.NewVerifier(tm, users, slog.Default())

		_, err := verifier.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	})

	t.Run("valid token but unknown subject", func(t *testing.T) {
		users := mocks.NewMockUserDirectory()
		verifier := auth.NewVerifier(tm, users, slog.Default())

		token, err := tm.GenerateToken(userID, tenantID, domain.RoleAgent)
		require.NoError(t, err)

		users.On("GetByID", ctx, userID).Return(nil, apperrors.ErrUserNotFound)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	})

	t.Run("valid token for deactivated account", func(t *testing.T) {
		users := mocks.NewMockUserDirectory()
		verifier := auth.NewVerifier(tm, users, slog.Default())

		token, err := tm.GenerateToken(userID, tenantID, domain.RoleAgent)
		require.NoError(t, err)

		inactive := *activeUser
		inactive.IsActive = false
		users.On("GetByID", ctx, userID).Return(&inactive, nil)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrInactiveAccount)
	})
}
