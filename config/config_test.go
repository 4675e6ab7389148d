package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WinRMPort != 5985 {
		t.Errorf("WinRMPort = %d, want 5985", cfg.WinRMPort)
	}
	if cfg.AttemptTimeout() != 30*time.Second {
		t.Errorf("AttemptTimeout = %s, want 30s", cfg.AttemptTimeout())
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if cfg.WinRMPort != 5985 {
		t.Errorf("WinRMPort = %d, want default", cfg.WinRMPort)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rebootcheck.yaml")
	content := `
winrm_port: 5986
winrm_use_tls: true
attempt_timeout_seconds: 10
concurrency: 4
domain: CORP
username: svc-rebootcheck
history_path: /var/lib/rebootcheck/history.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WinRMPort != 5986 || !cfg.WinRMUseTLS {
		t.Errorf("WinRM settings not loaded: %+v", cfg)
	}
	if cfg.AttemptTimeout() != 10*time.Second {
		t.Errorf("AttemptTimeout = %s, want 10s", cfg.AttemptTimeout())
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Username != "svc-rebootcheck" || cfg.Domain != "CORP" {
		t.Errorf("credentials not loaded: %+v", cfg)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("winrm_port: [not an int"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed config should fail to load")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REBOOTCHECK_WINRM_PORT", "5987")
	t.Setenv("REBOOTCHECK_USERNAME", "env-user")
	t.Setenv("REBOOTCHECK_PASSWORD", "env-pass")
	t.Setenv("REBOOTCHECK_CONCURRENCY", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WinRMPort != 5987 {
		t.Errorf("WinRMPort = %d, want env override 5987", cfg.WinRMPort)
	}
	if cfg.Username != "env-user" || cfg.Password != "env-pass" {
		t.Errorf("credential overrides not applied: %+v", cfg)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("REBOOTCHECK_WINRM_PORT", "70000")
	if _, err := Load(""); err == nil {
		t.Fatal("out-of-range port should fail validation")
	}
}
