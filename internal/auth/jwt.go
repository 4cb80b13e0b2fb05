package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both token kinds. Refresh tokens only
// fill UserID and TokenType.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Service signs and validates HS256 tokens. The token_type claim keeps a
// refresh token from ever passing access validation.
type Service struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewService(secretKey string, accessExpiry, refreshExpiry time.Duration) *Service {
	return &Service{
		secretKey:     []byte(secretKey),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssueTokens mints an access/refresh pair for the user.
func (s *Service) IssueTokens(userID, email, role string) (*TokenPair, error) {
	now := time.Now()

	accessExpiresAt := now.Add(s.accessExpiry)
	accessToken, err := s.sign(Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	})
	if err != nil {
		return nil, err
	}

	refreshExpiresAt := now.Add(s.refreshExpiry)
	refreshToken, err := s.sign(Claims{
		UserID:    userID,
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateAccessToken parses an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken parses a refresh token and returns the user ID.
func (s *Service) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) AccessTokenExpiry() time.Duration {
	return s.accessExpiry
}

func (s *Service) RefreshTokenExpiry() time.Duration {
	return s.refreshExpiry
}
