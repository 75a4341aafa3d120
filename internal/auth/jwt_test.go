package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTSecret() []byte {
	return []byte("a-very-long-signing-secret-for-tests")
}

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTService([]byte("short"))
	require.Error(t, err)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService(testJWTSecret())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc, err := NewJWTService(testJWTSecret())
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	svc, err := NewJWTService(testJWTSecret())
	require.NoError(t, err)

	other, err := NewJWTService([]byte("a-different-long-signing-secret-here"))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Garbage(t *testing.T) {
	svc, err := NewJWTService(testJWTSecret())
	require.NoError(t, err)

	_, err = svc.VerifyToken("nonsense.token.value")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
