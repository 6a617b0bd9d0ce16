package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	token, err := service.IssueToken("rIssuerAddr", RoleIssuer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "rIssuerAddr", claims.Address)
	assert.Equal(t, RoleIssuer, claims.Role)
}

func TestIssueTokenRejectsUnknownRole(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	_, err := service.IssueToken("rAddr", "admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	token, err := issuer.IssueToken("rAddr", RoleBuyer)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	_, err := service.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	service := NewService("test-secret", time.Nanosecond)

	token, err := service.IssueToken("rAddr", RoleBuyer)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = service.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
