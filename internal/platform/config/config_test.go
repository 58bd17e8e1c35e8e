package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "FIRESTORE_PROJECT_ID=file-project\nLOG_LEVEL=debug\nPORT=9999\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("PORT", "9001")
	t.Setenv("FIREBASE_PROJECT_ID", "env-project")

	cfg, err := Load(context.Background(),
		WithEnvFile(envFile),
		WithOverrides(map[string]string{"PORT": "9002"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 9002 {
		t.Fatalf("port = %d, want override 9002", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "file-project" {
		t.Fatalf("firestore project = %q, want file-project", cfg.Firestore.ProjectID)
	}
	if cfg.Firebase.ProjectID != "env-project" {
		t.Fatalf("firebase project = %q, want env-project", cfg.Firebase.ProjectID)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithOverrides(map[string]string{
		"FIRESTORE_PROJECT_ID": "",
		"FIREBASE_PROJECT_ID":  "",
		"GOOGLE_CLOUD_PROJECT": "",
	}))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadResolvesSecretReferences(t *testing.T) {
	resolver := func(_ context.Context, name string) (string, error) {
		if name != "momo-secret" {
			return "", fmt.Errorf("unexpected secret %q", name)
		}
		return "resolved-secret", nil
	}

	cfg, err := Load(context.Background(),
		WithSecretResolver(resolver),
		WithOverrides(map[string]string{
			"GOOGLE_CLOUD_PROJECT":   "demo",
			"PAYMENT_MOMO_ENDPOINT":  "https://pay.example.com/create",
			"PAYMENT_MOMO_SECRET":    "secret://momo-secret",
			"PAYMENT_MOMO_TIMEOUT":   "5s",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	gw, ok := cfg.Gateways["momo"]
	if !ok {
		t.Fatalf("momo gateway not configured: %+v", cfg.Gateways)
	}
	if gw.Secret != "resolved-secret" {
		t.Fatalf("secret = %q, want resolved-secret", gw.Secret)
	}
	if gw.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", gw.Timeout)
	}
}

func TestLoadSecretWithoutResolver(t *testing.T) {
	_, err := Load(context.Background(), WithOverrides(map[string]string{
		"GOOGLE_CLOUD_PROJECT":  "demo",
		"PAYMENT_MOMO_ENDPOINT": "https://pay.example.com/create",
		"PAYMENT_MOMO_SECRET":   "sm://momo-secret",
	}))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %v", err)
	}
}

func TestLoadGatewayValidation(t *testing.T) {
	_, err := Load(context.Background(), WithOverrides(map[string]string{
		"GOOGLE_CLOUD_PROJECT": "demo",
		"PAYMENT_PAYOO_SECRET": "shh",
	}))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for gateway without endpoint, got %v", err)
	}
}
