package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the clinic
// scheduling service.
type Config struct {
	HTTPPort        int
	DatabasePath    string
	ShutdownTimeout time.Duration
	LogLevel        string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Invalid values are collected and
// reported together so a misconfigured deployment fails with one message.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		DatabasePath:    "clinic.db",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		SMTPPort:        587,
	}

	var invalid []string

	if portValue := strings.TrimSpace(os.Getenv("CLINIC_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CLINIC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("CLINIC_DB_PATH")); path != "" {
		cfg.DatabasePath = path
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("CLINIC_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "CLINIC_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if level := strings.TrimSpace(os.Getenv("CLINIC_LOG_LEVEL")); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "CLINIC_LOG_LEVEL")
		}
	}

	cfg.SMTPHost = strings.TrimSpace(os.Getenv("CLINIC_SMTP_HOST"))
	if portValue := strings.TrimSpace(os.Getenv("CLINIC_SMTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CLINIC_SMTP_PORT")
		} else {
			cfg.SMTPPort = port
		}
	}
	cfg.SMTPUsername = os.Getenv("CLINIC_SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("CLINIC_SMTP_PASSWORD")
	cfg.SMTPFrom = strings.TrimSpace(os.Getenv("CLINIC_SMTP_FROM"))

	if cfg.SMTPHost != "" && cfg.SMTPFrom == "" {
		invalid = append(invalid, "CLINIC_SMTP_FROM")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
