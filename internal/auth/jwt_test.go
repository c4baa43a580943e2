package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "dashboard")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "dashboard" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := testConfig()

	wrongSecret := *cfg
	wrongSecret.Secret = []byte("other")
	wrongAudience := *cfg
	wrongAudience.Audience = "elsewhere"
	expired := *cfg
	expired.TTL = -time.Minute

	tests := []struct {
		name string
		mint *JWTConfig
	}{
		{name: "wrong secret", mint: &wrongSecret},
		{name: "wrong audience", mint: &wrongAudience},
		{name: "expired", mint: &expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.mint, "x")
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if _, err := ValidateToken(cfg, token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := ValidateToken(cfg, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	if _, err := TokenFromRequest(r); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	r = httptest.NewRequest("GET", "/ws?token=abc", nil)
	if tok, err := TokenFromRequest(r); err != nil || tok != "abc" {
		t.Fatalf("query token: %q %v", tok, err)
	}

	r = httptest.NewRequest("GET", "/ws?token=abc", nil)
	r.Header.Set("Authorization", "Bearer xyz")
	if tok, err := TokenFromRequest(r); err != nil || tok != "xyz" {
		t.Fatalf("header must win: %q %v", tok, err)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic xyz")
	if _, err := TokenFromRequest(r); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
