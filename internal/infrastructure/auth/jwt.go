package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/gobank/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents the JWT claims. The account ID travels in the subject.
type Claims struct {
	Email     string        `json:"email,omitempty"`
	Roles     []domain.Role `json:"roles,omitempty"`
	TokenType string        `json:"typ"`
	jwt.RegisteredClaims
}

// Principal converts access token claims into the request principal.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{
		AccountID: c.Subject,
		Email:     c.Email,
		Roles:     c.Roles,
	}
}

// JWTManager manages JWT token creation and validation
type JWTManager struct {
	accessKey       []byte
	accessDuration  time.Duration
	refreshKey      []byte
	refreshDuration time.Duration
}

// NewJWTManager creates a new JWT manager. Access and refresh tokens are
// signed with separate keys.
func NewJWTManager(accessSecret string, accessDuration time.Duration, refreshSecret string, refreshDuration time.Duration) *JWTManager {
	return &JWTManager{
		accessKey:       []byte(accessSecret),
		accessDuration:  accessDuration,
		refreshKey:      []byte(refreshSecret),
		refreshDuration: refreshDuration,
	}
}

// IssueAccessToken generates a short-lived token carrying the account's roles.
func (m *JWTManager) IssueAccessToken(account *domain.Account) (string, error) {
	claims := Claims{
		Email:            account.Email,
		Roles:            account.Roles,
		TokenType:        tokenTypeAccess,
		RegisteredClaims: registered(account.ID, m.accessDuration),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessKey)
}

// IssueRefreshToken generates a long-lived token that only identifies the account.
func (m *JWTManager) IssueRefreshToken(account *domain.Account) (string, error) {
	claims := Claims{
		TokenType:        tokenTypeRefresh,
		RegisteredClaims: registered(account.ID, m.refreshDuration),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.refreshKey)
}

// Verify verifies an access token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	return verify(tokenString, m.accessKey, tokenTypeAccess)
}

// VerifyRefreshToken verifies a refresh token and returns the account ID.
func (m *JWTManager) VerifyRefreshToken(tokenString string) (string, error) {
	claims, err := verify(tokenString, m.refreshKey, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func verify(tokenString string, key []byte, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
