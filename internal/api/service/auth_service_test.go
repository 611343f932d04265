package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret-key", time.Hour)

	token, err := auth.IssueToken("game-1")
	require.NoError(t, err)

	gameID, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "game-1", gameID)
}

func TestAuthService_ParseToken_Rejects(t *testing.T) {
	auth := NewAuthService("test-secret-key", time.Hour)

	otherSecret, err := NewAuthService("another-secret", time.Hour).IssueToken("game-1")
	require.NoError(t, err)

	expiredAuth := NewAuthService("test-secret-key", time.Hour).(*authService)
	expiredAuth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredAuth.IssueToken("game-1")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "game-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Empty", token: ""},
		{name: "Garbage", token: "not-a-jwt"},
		{name: "Wrong secret", token: otherSecret},
		{name: "Expired", token: expired},
		{name: "None algorithm", token: noneAlg},
		{name: "Missing subject", token: noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
