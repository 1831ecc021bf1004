package httpapi

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTAuth tests basic JWT authentication functionality
func TestJWTAuth(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	token, expiresAt, err := auth.GenerateToken("operator", true, 0)
	if err != nil {
		t.Fatalf("Expected no error generating token, got %v", err)
	}
	if token == "" {
		t.Error("Expected non-empty token")
	}
	if d := time.Until(expiresAt); d < DefaultTokenTTL-time.Minute || d > DefaultTokenTTL {
		t.Errorf("Expected default TTL, got expiry in %v", d)
	}

	claims, err := auth.ValidateToken("Bearer " + token)
	if err != nil {
		t.Fatalf("Expected no error validating token, got %v", err)
	}
	if claims.Subject != "operator" {
		t.Errorf("Expected subject 'operator', got '%s'", claims.Subject)
	}
	if !claims.IsAdmin {
		t.Error("Expected IsAdmin to be true")
	}

	if _, err := auth.ValidateToken("invalid-token"); err == nil {
		t.Error("Expected error for invalid token")
	}
	if _, err := auth.ValidateToken(""); err == nil {
		t.Error("Expected error for empty token")
	}
	if _, _, err := auth.GenerateToken("", false, 0); err == nil {
		t.Error("Expected error for empty subject")
	}
}

// TestJWTAuth_Expired verifies expired tokens are rejected
func TestJWTAuth_Expired(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	claims := JWTClaims{
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			Issuer:    "aomesh",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	_, err = auth.ValidateToken(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

// TestJWTAuth_Disabled verifies an empty secret rejects everything
func TestJWTAuth_Disabled(t *testing.T) {
	auth := NewJWTAuth("")
	if auth.Enabled() {
		t.Error("Expected auth to be disabled")
	}
	if _, _, err := auth.GenerateToken("operator", true, 0); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("Expected ErrAuthDisabled generating, got %v", err)
	}
	if _, err := auth.ValidateToken("anything"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("Expected ErrAuthDisabled validating, got %v", err)
	}
}

// TestJWTAuth_WrongIssuer verifies tokens from another issuer are rejected
func TestJWTAuth_WrongIssuer(t *testing.T) {
	claims := JWTClaims{
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	if _, err := NewJWTAuth("test-secret").ValidateToken(token); err == nil {
		t.Error("Expected error for foreign issuer")
	}
}
