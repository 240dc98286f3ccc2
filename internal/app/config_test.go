package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig(logger.Nop(), "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr: got=%q", cfg.Addr)
	}
	if cfg.Auth.AccessTokenTTL != time.Hour || cfg.Auth.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("ttls: got=%v/%v", cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	}
	if cfg.TimeZone != "Europe/Berlin" {
		t.Fatalf("time zone: got=%q", cfg.TimeZone)
	}
	if len(cfg.Auth.JWTSecretKey) != 64 {
		t.Fatalf("expected generated development secret, got %d chars", len(cfg.Auth.JWTSecretKey))
	}
	if cfg.OTel.ServiceName != cfg.ServiceName {
		t.Fatalf("otel service name: got=%q", cfg.OTel.ServiceName)
	}
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
env: production
addr: ":9000"
auth:
  jwt_secret_key: from-file
  access_token_ttl: 15m
storage:
  mode: gcs
  bucket: labor-pdfs
allowed_origins:
  - https://app.example
max_upload_bytes: 1048576
`)
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_MODE", "")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("GCS_BUCKET", "env-bucket")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(logger.Nop(), path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Env != EnvProduction || cfg.Addr != ":9000" {
		t.Fatalf("env/addr: got=%q/%q", cfg.Env, cfg.Addr)
	}
	if cfg.Auth.JWTSecretKey != "from-file" || cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("auth: got=%+v", cfg.Auth)
	}
	if cfg.Storage.Mode != "gcs" || cfg.Storage.Bucket != "env-bucket" {
		t.Fatalf("storage: got=%+v", cfg.Storage)
	}
	if cfg.Storage.Timeout != time.Minute {
		t.Fatalf("storage timeout default lost: got=%v", cfg.Storage.Timeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins: got=%v", cfg.AllowedOrigins)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Fatalf("max upload: got=%d", cfg.MaxUploadBytes)
	}
}

func TestLoadConfigProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := LoadConfig(logger.Nop(), "")
	if !errors.Is(err, errMissingJWTSecret) {
		t.Fatalf("expected errMissingJWTSecret, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(logger.Nop(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
