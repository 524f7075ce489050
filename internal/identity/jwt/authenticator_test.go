package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	auth := NewAuthenticator("test-secret", "opsdesk", time.Hour)
	user := &domain.User{ID: "user-1", Role: domain.RoleResponder}

	token, err := auth.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, domain.RoleResponder, role)
}

func TestValidateToken_Expired(t *testing.T) {
	auth := NewAuthenticator("test-secret", "opsdesk", -time.Minute)
	token, err := auth.GenerateToken(context.Background(), &domain.User{ID: "user-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, _, err = auth.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuing := NewAuthenticator("secret-a", "opsdesk", time.Hour)
	validating := NewAuthenticator("secret-b", "opsdesk", time.Hour)

	token, err := issuing.GenerateToken(context.Background(), &domain.User{ID: "user-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, _, err = validating.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issuing := NewAuthenticator("test-secret", "someone-else", time.Hour)
	validating := NewAuthenticator("test-secret", "opsdesk", time.Hour)

	token, err := issuing.GenerateToken(context.Background(), &domain.User{ID: "user-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, _, err = validating.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	auth := NewAuthenticator("test-secret", "opsdesk", time.Hour)

	_, _, err := auth.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
