package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	redisclient "github.com/vietddude/seqproxy/internal/infra/redis"
	"github.com/vietddude/seqproxy/internal/infra/storage/postgres"
	"github.com/vietddude/seqproxy/internal/notify"
	"github.com/vietddude/seqproxy/internal/predict"
	"github.com/vietddude/seqproxy/internal/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first, and
// applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.applyDefaults()
	return &cfg
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Room for every attempt plus the pauses between them.
		cfg.Server.WriteTimeout = 2 * time.Minute
	}

	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = 30 * time.Second
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultConfig.MaxAttempts
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = retry.DefaultConfig.Delay
	}

	if cfg.Notify.Source == "" {
		cfg.Notify.Source = predict.DefaultSource
	}
	if cfg.Notify.Timeout <= 0 || cfg.Notify.Timeout > notify.MaxTimeout {
		cfg.Notify.Timeout = notify.MaxTimeout
	}
	if cfg.Notify.Redis.Key == "" {
		cfg.Notify.Redis.Key = redisclient.DefaultKey
	}
	if cfg.Notify.Redis.MaxLen == 0 {
		cfg.Notify.Redis.MaxLen = 10000
	}
	if cfg.Notify.Database.Driver == "" {
		cfg.Notify.Database.Driver = postgres.DefaultDriver
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks settings required to serve predictions.
func (cfg *AppConfig) Validate() error {
	var errs []error
	if cfg.Inference.Endpoint == "" {
		errs = append(errs, errors.New("inference.endpoint is required"))
	}
	if cfg.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be >= 1, got %d", cfg.Retry.MaxAttempts))
	}
	if cfg.Retry.Delay < 0 {
		errs = append(errs, fmt.Errorf("retry.delay must not be negative, got %s", cfg.Retry.Delay))
	}
	switch cfg.Notify.Database.Driver {
	case "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("notify.database.driver must be pgx or postgres, got %q", cfg.Notify.Database.Driver))
	}
	return errors.Join(errs...)
}

// RetryPolicy converts the retry section into a retry.Config.
func (cfg *AppConfig) RetryPolicy() retry.Config {
	return retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay,
	}
}
