package config

import (
	"time"

	"github.com/vietddude/seqproxy/internal/infra/inference"
	redisclient "github.com/vietddude/seqproxy/internal/infra/redis"
	"github.com/vietddude/seqproxy/internal/infra/storage/postgres"
	"github.com/vietddude/seqproxy/internal/notify"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig     `yaml:"server"`
	Inference inference.Config `yaml:"inference"`
	Retry     RetryConfig      `yaml:"retry"`
	Normalize NormalizeConfig  `yaml:"normalize"`
	Notify    NotifyConfig     `yaml:"notify"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	CORSOrigin   string        `yaml:"cors_origin"` // empty disables CORS headers
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetryConfig controls the backend retry policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// NormalizeConfig controls how unrecognized backend payloads are handled.
type NormalizeConfig struct {
	Strict bool `yaml:"strict"`
}

// NotifyConfig holds side-channel settings. Every configured sink is used.
type NotifyConfig struct {
	Source   string               `yaml:"source"`
	Timeout  time.Duration        `yaml:"timeout"`
	Webhook  notify.WebhookConfig `yaml:"webhook"`
	Redis    redisclient.Config   `yaml:"redis"`
	Database postgres.Config      `yaml:"database"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether /metrics is served; defaults to true.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
