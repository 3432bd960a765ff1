package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"CLINIC_HTTP_PORT",
			"CLINIC_DB_PATH",
			"CLINIC_SHUTDOWN_TIMEOUT",
			"CLINIC_LOG_LEVEL",
			"CLINIC_SMTP_HOST",
			"CLINIC_SMTP_PORT",
			"CLINIC_SMTP_FROM",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DatabasePath != "clinic.db" {
			t.Fatalf("unexpected default database path: %q", cfg.DatabasePath)
		}
		if cfg.ShutdownTimeout != 10*time.Second {
			t.Fatalf("unexpected default shutdown timeout: %s", cfg.ShutdownTimeout)
		}
		if cfg.SMTPHost != "" {
			t.Fatalf("expected mail delivery to default to disabled, got %q", cfg.SMTPHost)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("CLINIC_HTTP_PORT", "9090")
		t.Setenv("CLINIC_DB_PATH", "/tmp/clinic.db")
		t.Setenv("CLINIC_SHUTDOWN_TIMEOUT", "30s")
		t.Setenv("CLINIC_LOG_LEVEL", "debug")
		t.Setenv("CLINIC_SMTP_HOST", "mail.example.com")
		t.Setenv("CLINIC_SMTP_PORT", "2525")
		t.Setenv("CLINIC_SMTP_FROM", "citas@example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.DatabasePath != "/tmp/clinic.db" {
			t.Fatalf("unexpected database path: %q", cfg.DatabasePath)
		}
		if cfg.ShutdownTimeout != 30*time.Second {
			t.Fatalf("expected shutdown timeout 30s, got %s", cfg.ShutdownTimeout)
		}
		if cfg.LogLevel != "debug" {
			t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
		}
		if cfg.SMTPPort != 2525 {
			t.Fatalf("expected SMTP port 2525, got %d", cfg.SMTPPort)
		}
	})

	t.Run("collects invalid values into one error", func(t *testing.T) {
		t.Setenv("CLINIC_HTTP_PORT", "not-a-port")
		t.Setenv("CLINIC_SHUTDOWN_TIMEOUT", "soon")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"CLINIC_HTTP_PORT", "CLINIC_SHUTDOWN_TIMEOUT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to name %s, got %q", key, err.Error())
			}
		}
	})

	t.Run("requires a sender when mail is enabled", func(t *testing.T) {
		t.Setenv("CLINIC_SMTP_HOST", "mail.example.com")
		if err := os.Unsetenv("CLINIC_SMTP_FROM"); err != nil {
			t.Fatalf("failed to unset CLINIC_SMTP_FROM: %v", err)
		}

		if _, err := Load(); err == nil {
			t.Fatal("expected error when SMTP host is set without a sender")
		}
	})
}
