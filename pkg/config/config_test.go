package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env
	for _, k := range []string{"STOREFRONT_API_URL", "STOREFRONT_TIMEOUT", "STOREFRONT_STORAGE", "STOREFRONT_CONFIG", "OTEL_METRICS_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	if cfg.APIBaseURL != "http://localhost:5000/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.StorageBackend != "file" || cfg.OTELMetricsEnabled {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_CONFIG", "")
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api")
	t.Setenv("STOREFRONT_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_STORAGE", "redis")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("OTEL_METRICS_ENABLED", "yes")

	cfg := LoadConfig()
	if cfg.APIBaseURL != "https://shop.example.com/api" || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.StorageBackend != "redis" || cfg.RedisDB != 4 || !cfg.OTELMetricsEnabled {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STOREFRONT_CONFIG", "")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL") // godotenv never overrides a set variable, even an empty one
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if cfg := LoadConfig(); cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want value from .env", cfg.LogLevel)
	}
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	data := "api_base_url: http://staging/api\nrequest_timeout: 2s\nstorage_backend: sqlite\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{APIBaseURL: "http://localhost:5000/api", LogLevel: "info", ProfileDir: "/tmp/p"}
	if err := cfg.MergeFile(path); err != nil {
		t.Fatalf("MergeFile: %v", err)
	}
	if cfg.APIBaseURL != "http://staging/api" || cfg.RequestTimeout != 2*time.Second || cfg.StorageBackend != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("omitted key overwritten: %q", cfg.LogLevel)
	}
	if cfg.SQLitePath() != filepath.Join("/tmp/p", "session.db") {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath())
	}

	if err := cfg.MergeFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("MergeFile of missing file succeeded")
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3307", DBName: "shop"}
	if got, want := cfg.GetDSN(), "u:p@tcp(db:3307)/shop?parseTime=true&charset=utf8mb4"; got != want {
		t.Errorf("GetDSN = %q, want %q", got, want)
	}
}
