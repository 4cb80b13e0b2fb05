package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(
		"test-secret-key-for-testing-purposes",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func TestIssueTokens_Success(t *testing.T) {
	service := newTestService()

	pair, err := service.IssueTokens("user-123", "test@example.com", "customer")

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.AccessExpiresAt.After(time.Now()))
	assert.True(t, pair.AccessExpiresAt.Before(time.Now().Add(16*time.Minute)))
	assert.True(t, pair.RefreshExpiresAt.Before(time.Now().Add(8*24*time.Hour)))
}

func TestValidateAccessToken_Valid(t *testing.T) {
	service := newTestService()

	pair, err := service.IssueTokens("user-456", "test@example.com", "admin")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "user-456", claims.Subject)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	service := NewService("test-secret", 1*time.Millisecond, 7*24*time.Hour)

	pair, err := service.IssueTokens("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateAccessToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_Invalid(t *testing.T) {
	service := newTestService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateAccessToken_WrongSignature(t *testing.T) {
	service1 := NewService("secret-key-1", 15*time.Minute, 7*24*time.Hour)
	service2 := NewService("secret-key-2", 15*time.Minute, 7*24*time.Hour)

	pair, err := service1.IssueTokens("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	claims, err := service2.ValidateAccessToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_WrongAlgorithm(t *testing.T) {
	service := newTestService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:    "user-123",
		TokenType: tokenTypeAccess,
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_RejectsRefreshToken(t *testing.T) {
	service := newTestService()

	pair, err := service.IssueTokens("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(pair.RefreshToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateRefreshToken_Valid(t *testing.T) {
	service := newTestService()

	pair, err := service.IssueTokens("user-refresh-test", "test@example.com", "customer")
	require.NoError(t, err)

	userID, err := service.ValidateRefreshToken(pair.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, "user-refresh-test", userID)
}

func TestValidateRefreshToken_Expired(t *testing.T) {
	service := NewService("test-secret", 15*time.Minute, 1*time.Millisecond)

	pair, err := service.IssueTokens("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	userID, err := service.ValidateRefreshToken(pair.RefreshToken)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Empty(t, userID)
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	service := newTestService()

	pair, err := service.IssueTokens("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	userID, err := service.ValidateRefreshToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, userID)
}

func TestServiceExpiry(t *testing.T) {
	accessExpiry := 30 * time.Minute
	refreshExpiry := 14 * 24 * time.Hour

	service := NewService("secret", accessExpiry, refreshExpiry)

	assert.Equal(t, accessExpiry, service.AccessTokenExpiry())
	assert.Equal(t, refreshExpiry, service.RefreshTokenExpiry())
}
