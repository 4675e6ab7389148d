// Package config loads checker configuration from an optional YAML
// file with environment variable overrides. Credentials are taken from
// the environment only and never written to disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the connection and batch parameters for a run.
type Config struct {
	// WinRMPort is the primary transport listener port.
	WinRMPort int `yaml:"winrm_port"`
	// WinRMUseTLS selects the HTTPS listener.
	WinRMUseTLS bool `yaml:"winrm_use_tls"`
	// WinRMInsecure skips certificate verification on the HTTPS
	// listener.
	WinRMInsecure bool `yaml:"winrm_insecure"`
	// AttemptTimeoutSeconds bounds each transport attempt.
	AttemptTimeoutSeconds int `yaml:"attempt_timeout_seconds"`
	// Concurrency bounds parallel target processing.
	Concurrency int `yaml:"concurrency"`
	// HistoryPath enables the SQLite result history when non-empty.
	HistoryPath string `yaml:"history_path"`
	// Domain qualifies the credentials for NTLM negotiation.
	Domain string `yaml:"domain"`
	// Username authenticates remote sessions. Overridden by
	// REBOOTCHECK_USERNAME.
	Username string `yaml:"username"`

	// Password is environment-only (REBOOTCHECK_PASSWORD).
	Password string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		WinRMPort:             5985,
		AttemptTimeoutSeconds: 30,
		Concurrency:           1,
	}
}

// Load reads path (when it exists) over the defaults, then applies
// environment overrides. A missing file is not an error; a malformed
// one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults plus environment only.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.WinRMPort = getEnvInt("REBOOTCHECK_WINRM_PORT", cfg.WinRMPort)
	cfg.WinRMUseTLS = getEnvBool("REBOOTCHECK_WINRM_USE_TLS", cfg.WinRMUseTLS)
	cfg.WinRMInsecure = getEnvBool("REBOOTCHECK_WINRM_INSECURE", cfg.WinRMInsecure)
	cfg.AttemptTimeoutSeconds = getEnvInt("REBOOTCHECK_ATTEMPT_TIMEOUT_SECONDS", cfg.AttemptTimeoutSeconds)
	cfg.Concurrency = getEnvInt("REBOOTCHECK_CONCURRENCY", cfg.Concurrency)
	cfg.HistoryPath = getEnv("REBOOTCHECK_HISTORY_PATH", cfg.HistoryPath)
	cfg.Domain = getEnv("REBOOTCHECK_DOMAIN", cfg.Domain)
	cfg.Username = getEnv("REBOOTCHECK_USERNAME", cfg.Username)
	cfg.Password = getEnv("REBOOTCHECK_PASSWORD", "")

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.WinRMPort < 1 || c.WinRMPort > 65535 {
		return fmt.Errorf("winrm_port %d out of range", c.WinRMPort)
	}
	if c.AttemptTimeoutSeconds < 1 {
		return fmt.Errorf("attempt_timeout_seconds %d must be positive", c.AttemptTimeoutSeconds)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency %d must be positive", c.Concurrency)
	}
	return nil
}

// AttemptTimeout returns the per-attempt deadline as a duration.
func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return fallback
}
