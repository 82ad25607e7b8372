package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradeproof/internal/models"
)

func TestLoginIssuesToken(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	svc := NewAuthService("test-secret", hash, zap.NewNop())

	token, expiresAt, err := svc.Login("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), expiresAt, time.Minute)

	claims := &models.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "reviewer", claims.Username)
	assert.Equal(t, "reviewer", claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	svc := NewAuthService("test-secret", hash, zap.NewNop())

	_, _, err = svc.Login("hunter3")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginMalformedHash(t *testing.T) {
	svc := NewAuthService("test-secret", "not-a-hash", zap.NewNop())

	_, _, err := svc.Login("anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	ok, err := verifyPassword("same", a)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = verifyPassword("same", b)
	require.NoError(t, err)
	assert.True(t, ok)
}
