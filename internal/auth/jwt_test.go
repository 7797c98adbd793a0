package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	manager := &JWTManager{secret: "test-secret"}

	token, err := manager.GenerateAccessJWT("user-1", time.Minute)
	assert.NoError(t, err)

	userID, err := manager.ValidateAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAccessToken_Expired(t *testing.T) {
	manager := &JWTManager{secret: "test-secret"}

	token, err := manager.GenerateAccessJWT("user-1", -time.Minute)
	assert.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredJWTToken)
}

func TestRefreshToken_BoundToHashToken(t *testing.T) {
	manager := &JWTManager{secret: "test-secret"}

	token, err := manager.GenerateRefreshJWT("user-1", "hash-token-a", time.Hour)
	assert.NoError(t, err)

	assert.NoError(t, manager.ValidateRefreshToken(token, "hash-token-a"))

	// Rotating the user's hash token must invalidate the refresh token.
	err = manager.ValidateRefreshToken(token, "hash-token-b")
	assert.ErrorIs(t, err, ErrInvalidJWTToken)

	userID, err := manager.ExtractUserIDFromRefreshToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestSessionManager_RoundTrip(t *testing.T) {
	sm := NewSessionManager()

	token, err := sm.GenerateSessionToken("user-1", time.Minute)
	assert.NoError(t, err)

	userID, err := sm.VerifySessionToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	sm.DeleteSessionToken(token)
	_, err = sm.VerifySessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidSessionToken)
}

func TestSessionManager_Expired(t *testing.T) {
	sm := NewSessionManager()

	token, err := sm.GenerateSessionToken("user-1", -time.Second)
	assert.NoError(t, err)

	_, err = sm.VerifySessionToken(token)
	assert.ErrorIs(t, err, ErrExpiredSessionToken)
}
