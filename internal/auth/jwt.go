// Package auth issues and validates the signed tokens that protect the
// HTTP API. Tokens are HMAC-signed JWTs carrying the account ID and
// username.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aetherforge/aetherforge/internal/config"
)

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when a token is past its expiry.
var ErrExpiredToken = errors.New("token has expired")

// Claims are the custom JWT claims attached to every issued token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and validates tokens using a shared HMAC secret.
type Manager struct {
	secret   []byte
	duration time.Duration
	issuer   string
	now      func() time.Time
}

// NewManager creates a Manager from the auth configuration.
//
// Precondition: cfg must have passed config validation (non-empty secret).
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		secret:   []byte(cfg.Secret),
		duration: cfg.TokenDuration,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}
}

// Generate issues a signed token for the given account.
//
// Precondition: userID must be > 0; username must be non-empty.
// Postcondition: Returns a compact JWS string valid for the configured duration.
func (m *Manager) Generate(userID int64, username, role string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and verifies a token string.
//
// Postcondition: Returns the claims if the token is authentic and current,
// ErrExpiredToken if it is past expiry, or ErrInvalidToken otherwise.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
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
