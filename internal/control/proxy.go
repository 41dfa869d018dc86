package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/seqproxy/internal/api"
	"github.com/vietddude/seqproxy/internal/core/config"
	"github.com/vietddude/seqproxy/internal/infra/inference"
	redisclient "github.com/vietddude/seqproxy/internal/infra/redis"
	"github.com/vietddude/seqproxy/internal/infra/storage/postgres"
	"github.com/vietddude/seqproxy/internal/notify"
	"github.com/vietddude/seqproxy/internal/predict"
	"github.com/vietddude/seqproxy/internal/retry"
)

// Config holds the application configuration.
type Config struct {
	Server    config.ServerConfig
	Inference inference.Config
	Retry     retry.Config
	Strict    bool
	Notify    config.NotifyConfig
	Metrics   bool
}

// FromAppConfig transforms the file configuration into a Config.
func FromAppConfig(cfg *config.AppConfig) Config {
	return Config{
		Server:    cfg.Server,
		Inference: cfg.Inference,
		Retry:     cfg.RetryPolicy(),
		Strict:    cfg.Normalize.Strict,
		Notify:    cfg.Notify,
		Metrics:   cfg.Metrics.IsEnabled(),
	}
}

// Proxy is the main application struct that owns the shared backend client,
// the notification dispatcher and the HTTP server.
type Proxy struct {
	cfg        Config
	client     *inference.HTTPClient
	dispatcher *notify.Dispatcher
	service    *predict.Service
	server     *api.Server
	db         *postgres.DB
	log        *slog.Logger
}

// NewProxy creates a new Proxy instance with all dependencies initialized.
func NewProxy(cfg Config) (*Proxy, error) {
	log := slog.Default().With("component", "control")

	// 1. Inference backend, shared by every request
	client, err := inference.NewHTTPClient(cfg.Inference)
	if err != nil {
		return nil, fmt.Errorf("failed to init inference client: %w", err)
	}

	// 2. Side channel
	sinks, db := buildSinks(cfg.Notify, log)
	dispatcher := notify.NewDispatcher(cfg.Notify.Timeout, sinks...)

	// 3. Prediction service
	service := predict.NewService(client, dispatcher, predict.Config{
		Retry:  cfg.Retry,
		Strict: cfg.Strict,
		Source: cfg.Notify.Source,
	})

	// 4. HTTP server
	server := api.NewServer(service, api.Options{
		Port:         cfg.Server.Port,
		CORSOrigin:   cfg.Server.CORSOrigin,
		Metrics:      cfg.Metrics,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	return &Proxy{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		service:    service,
		server:     server,
		db:         db,
		log:        log,
	}, nil
}

// buildSinks connects every configured sink. A sink that cannot be reached
// at startup is skipped with a warning; the side channel never blocks boot.
func buildSinks(cfg config.NotifyConfig, log *slog.Logger) ([]notify.Sink, *postgres.DB) {
	sinks := []notify.Sink{notify.LogSink{}}

	if cfg.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Webhook))
		log.Info("Notification sink enabled", "sink", "webhook")
	}

	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis sink disabled", "error", err)
		} else {
			sinks = append(sinks, redisclient.NewPredictionLog(rc, cfg.Redis.Key, cfg.Redis.MaxLen))
			log.Info("Notification sink enabled", "sink", "redis", "key", cfg.Redis.Key)
		}
	}

	var db *postgres.DB
	if cfg.Database.URL != "" {
		ctx := context.Background()
		conn, err := postgres.NewDB(ctx, cfg.Database)
		if err == nil {
			err = conn.Migrate(ctx)
			if err != nil {
				_ = conn.Close()
			}
		}
		if err != nil {
			log.Warn("Postgres sink disabled", "error", err)
		} else {
			db = conn
			sinks = append(sinks, postgres.NewPredictionLogRepo(conn))
			log.Info("Notification sink enabled", "sink", "postgres", "driver", cfg.Database.Driver)
		}
	}

	return sinks, db
}

// Service returns the prediction service.
func (p *Proxy) Service() *predict.Service {
	return p.service
}

// Handler returns the HTTP handler without starting a listener.
func (p *Proxy) Handler() http.Handler {
	return p.server.Handler()
}

// Addr returns the bound server address after Start.
func (p *Proxy) Addr() string {
	return p.server.Addr()
}

// Start starts the HTTP server and background collectors.
func (p *Proxy) Start(ctx context.Context) error {
	if err := p.server.Start(); err != nil {
		return err
	}

	// Start DB Metrics Collector
	if p.db != nil {
		p.db.StartMetricsCollector(ctx)
	}

	p.log.Info("Proxy started", "backend", p.cfg.Inference.Endpoint, "max_attempts", p.cfg.Retry.MaxAttempts)
	return nil
}

// Stop drains the server, flushes pending notifications and releases the
// backend connection pool.
func (p *Proxy) Stop(ctx context.Context) error {
	p.log.Info("Stopping Proxy...")

	var errs []error
	if err := p.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop server: %w", err))
	}
	if err := p.dispatcher.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.client.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases resources of a Proxy that was never started.
func (p *Proxy) Close(ctx context.Context) error {
	return errors.Join(p.dispatcher.Close(ctx), p.client.Close())
}
