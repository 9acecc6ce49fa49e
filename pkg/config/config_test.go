package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env dev, got %q", cfg.App.Env)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected IsDev for default env")
	}
	if cfg.Gateway.BaseURL != "https://dummyjson.com" {
		t.Fatalf("unexpected gateway base url %q", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Timeout != 10*time.Second {
		t.Fatalf("unexpected gateway timeout %v", cfg.Gateway.Timeout)
	}
	if cfg.Storage.Backend != StorageBackendFile {
		t.Fatalf("expected file backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir == "" {
		t.Fatalf("expected default storage dir to be resolved")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvGatewayBaseURL, "http://localhost:9090")
	t.Setenv(EnvStorageBackend, StorageBackendMemory)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env")
	}
	if cfg.Gateway.BaseURL != "http://localhost:9090" {
		t.Fatalf("unexpected gateway base url %q", cfg.Gateway.BaseURL)
	}
	if cfg.Storage.Dir != "" {
		t.Fatalf("memory backend should not resolve a state dir")
	}
}

func TestLoad_RedisBackendRequiresURL(t *testing.T) {
	t.Setenv(EnvStorageBackend, StorageBackendRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when redis backend has no url")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected redis url %q", cfg.Redis.URL)
	}
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	t.Setenv(EnvStorageBackend, "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend to be rejected")
	}
}
