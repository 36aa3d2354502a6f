package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != DBDriverSQLite {
		t.Fatalf("expected sqlite default driver, got %q", cfg.DBDriver)
	}
	if cfg.LoginFailureDelay != 500*time.Millisecond {
		t.Fatalf("expected 500ms failure delay, got %v", cfg.LoginFailureDelay)
	}
	if cfg.RedisEnabled() {
		t.Fatal("redis must be disabled without REDIS_ADDR")
	}
	if len(cfg.CORSAllowedOrigins) != 4 {
		t.Fatalf("expected default cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFilePortFallbackAndEnvOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	content := "LOGIN_FAILURE_DELAY=750ms\nCORS_ALLOWED_ORIGIN_SUFFIXES=netlify.app, example.org\nREDIS_ADDR=localhost:6379\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("LOGIN_FAILURE_DELAY", "1s")

	cfg, err := LoadFile(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected PORT fallback, got %q", cfg.HTTPAddr)
	}
	if cfg.LoginFailureDelay != time.Second {
		t.Fatalf("expected env to override file, got %v", cfg.LoginFailureDelay)
	}
	if got := strings.Join(cfg.CORSAllowedOriginSuffixes, "|"); got != "netlify.app|example.org" {
		t.Fatalf("unexpected suffixes %q", got)
	}
	if !cfg.RedisEnabled() {
		t.Fatal("expected redis enabled from file")
	}
}

func TestLoadFileParseError(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	_, err := LoadFile("")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if classifyConfigLoadError(err) != "parse" {
		t.Fatalf("expected parse classification, got %q (%v)", classifyConfigLoadError(err), err)
	}
}

func TestValidateProductionRules(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LOGIN_FAILURE_DELAY", "100ms")
	_, err := LoadFile("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if classifyConfigLoadError(err) != "validation" {
		t.Fatalf("expected validation classification, got %v", err)
	}
	for _, want := range []string{"LOGIN_FAILURE_DELAY", "DB_DRIVER"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in error, got %v", want, err)
		}
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		DBDriver:          "mysql",
		DatabaseURL:       "x",
		AuthRateLimitRPM:  1,
		APIRateLimitRPM:   1,
		ShutdownTimeout:   time.Second,
		LoginFailureDelay: 500 * time.Millisecond,
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
		t.Fatalf("expected DB_DRIVER validation error, got %v", err)
	}
}
