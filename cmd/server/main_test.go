package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
)

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("RELAY_ACCESS_SECRET", "")
	cmd := rootCmd()
	cmd.SetArgs([]string{"token", "--config", filepath.Join(t.TempDir(), "config.yaml")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without access_secret")
	}
}

func TestTokenCommandMintsValidToken(t *testing.T) {
	t.Setenv("RELAY_ACCESS_SECRET", "cli-secret")
	path := filepath.Join(t.TempDir(), "config.yaml")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs([]string{"token", "--config", path, "--subject", "ops"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("token command: %v", err)
	}

	cfg := config.Default()
	cfg.AccessSecret = "cli-secret"
	claims, err := auth.ValidateToken(transporthttp.JWTConfigFrom(&cfg), strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("minted token invalid: %v", err)
	}
	if claims.Subject != "ops" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}
