package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	// Setup env var
	os.Setenv("TEST_HF_TOKEN", "hf_secret")
	defer os.Unsetenv("TEST_HF_TOKEN")

	// Create temp config file
	configContent := `
inference:
  endpoint: https://example.hf.space/predict_peptide
  token: ${TEST_HF_TOKEN}
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	// Load config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Inference.Token != "hf_secret" {
		t.Errorf("Expected token hf_secret, got %s", cfg.Inference.Token)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Delay != 1200*time.Millisecond {
		t.Errorf("Expected 1.2s delay, got %s", cfg.Retry.Delay)
	}
	if cfg.Notify.Timeout != 5*time.Second {
		t.Errorf("Expected 5s notify timeout, got %s", cfg.Notify.Timeout)
	}
	if cfg.Notify.Source != "seqproxy" {
		t.Errorf("Expected source seqproxy, got %s", cfg.Notify.Source)
	}
	if !cfg.Metrics.IsEnabled() {
		t.Error("Expected metrics enabled by default")
	}
	if cfg.Validate() == nil {
		t.Error("Expected validation error for missing endpoint")
	}
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  port: 9000
retry:
  max_attempts: 5
  delay: 250ms
normalize:
  strict: true
notify:
  timeout: 30s
  database:
    driver: mysql
metrics:
  enabled: false
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	policy := cfg.RetryPolicy()
	if policy.MaxAttempts != 5 || policy.Delay != 250*time.Millisecond {
		t.Errorf("Unexpected retry policy: %+v", policy)
	}
	if !cfg.Normalize.Strict {
		t.Error("Expected strict normalization")
	}
	if cfg.Notify.Timeout != 5*time.Second {
		t.Errorf("Expected notify timeout clamped to 5s, got %s", cfg.Notify.Timeout)
	}
	if cfg.Metrics.IsEnabled() {
		t.Error("Expected metrics disabled")
	}
	if cfg.Validate() == nil {
		t.Error("Expected validation error for unknown driver and missing endpoint")
	}
}
