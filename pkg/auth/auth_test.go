package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-16-chars", time.Hour)
	owner := uuid.New()

	token, expiresAt, err := svc.GenerateToken(owner, "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, owner, claims.OwnerID)
	assert.Equal(t, "session-1", claims.ID)
}

func TestJWT_RejectsOtherSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-one-secret-one", time.Hour).GenerateToken(uuid.New(), "s")
	require.NoError(t, err)

	_, err = NewJWTService("secret-two-secret-two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-16-chars", -time.Minute)
	token, _, err := svc.GenerateToken(uuid.New(), "s")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPasswordWithCost("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("correct horse", ""))
}

func TestPassword_TooLong(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := HashPasswordWithCost(string(long), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
