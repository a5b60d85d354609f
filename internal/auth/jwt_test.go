package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func seller() Identity {
	return Identity{UserID: 7, Username: "ana", Role: "seller", Permissions: []string{"create_sales", "view_sales"}}
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := NewJWTService(testSecret, 15*time.Minute)

	token, expiresAt, err := service.GenerateAccessToken(seller())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "7", claims.Subject)
	assert.True(t, claims.Can("create_sales"))
	assert.False(t, claims.Can("view_activity"))
}

func TestJWTService_Expired(t *testing.T) {
	service := NewJWTService(testSecret, time.Minute)
	service.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := service.GenerateAccessToken(seller())
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService(testSecret, time.Minute).GenerateAccessToken(seller())
	require.NoError(t, err)

	_, err = NewJWTService("another-secret-key-that-is-long-enough", time.Minute).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherSigningMethods(t *testing.T) {
	claims := Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService(testSecret, time.Minute).ValidateAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsMissingUser(t *testing.T) {
	service := NewJWTService(testSecret, time.Minute)
	token, _, err := service.GenerateAccessToken(Identity{Username: "ghost"})
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Garbage(t *testing.T) {
	_, err := NewJWTService(testSecret, time.Minute).ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
