package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens minted without an explicit TTL
const DefaultTokenTTL = 24 * time.Hour

// ErrAuthDisabled is returned when no signing secret is configured
var ErrAuthDisabled = errors.New("admin authentication is not configured")

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	IsAdmin bool `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth handles JWT token creation and validation
type JWTAuth struct {
	secretKey []byte
}

// NewJWTAuth creates a new JWT authentication handler. An empty secret
// disables authentication: every token is rejected with ErrAuthDisabled.
func NewJWTAuth(secretKey string) *JWTAuth {
	return &JWTAuth{
		secretKey: []byte(secretKey),
	}
}

// Enabled reports whether a signing secret is configured.
func (j *JWTAuth) Enabled() bool {
	return len(j.secretKey) > 0
}

// GenerateToken creates a signed token for subject. A zero ttl uses DefaultTokenTTL.
func (j *JWTAuth) GenerateToken(subject string, isAdmin bool, ttl time.Duration) (string, time.Time, error) {
	if !j.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}
	if subject == "" {
		return "", time.Time{}, errors.New("subject cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := JWTClaims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "aomesh",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (j *JWTAuth) ValidateToken(tokenString string) (*JWTClaims, error) {
	if !j.Enabled() {
		return nil, ErrAuthDisabled
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return nil, errors.New("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer("aomesh"))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
