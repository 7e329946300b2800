package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080/api" {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("unexpected storage type %q", cfg.StorageType)
	}
	if cfg.StorageTTL != 7*24*time.Hour || cfg.StorageCleanupInterval != 12*time.Hour {
		t.Fatalf("unexpected storage durations %v %v", cfg.StorageTTL, cfg.StorageCleanupInterval)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BASE_URL", "https://market.example.com/api")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("SEED_DELAY_MS", "250")
	t.Setenv("STORAGE_TYPE", "bbolt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://market.example.com/api" {
		t.Fatalf("env base url not applied: %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected timeout disabled, got %v", cfg.RequestTimeout)
	}
	if cfg.SeedDelay != 250*time.Millisecond {
		t.Fatalf("unexpected seed delay %v", cfg.SeedDelay)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("unexpected storage type %q", cfg.StorageType)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestFinalizeRejectsNonPositiveTTL(t *testing.T) {
	cfg := Config{BaseURL: "http://x", StorageTTLSeconds: 0, StorageCleanupSeconds: 1}
	if err := cfg.Finalize(); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
