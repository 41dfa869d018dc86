package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Request body formats understood by HTTPClient.
const (
	FormatSequence = "sequence" // {"sequence": "..."}
	FormatGradio   = "gradio"   // {"data": ["..."]}
)

// maxErrorBody caps how much of a failed response ends up in the error text.
const maxErrorBody = 512

// Config holds backend connection settings.
type Config struct {
	Endpoint      string          `yaml:"endpoint"`
	Timeout       time.Duration   `yaml:"timeout"`
	Token         string          `yaml:"token"`
	RequestFormat string          `yaml:"request_format"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds the call rate towards the backend. Zero disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// HTTPClient implements Client for a JSON-over-HTTP backend. It is built
// once at startup and shared by all requests.
type HTTPClient struct {
	endpoint   string
	token      string
	format     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPClient creates a new HTTP inference client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("inference endpoint is required")
	}

	format := cfg.RequestFormat
	switch format {
	case "":
		format = FormatSequence
	case FormatSequence, FormatGradio:
	default:
		return nil, fmt.Errorf("unknown request format %q", cfg.RequestFormat)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}

	return &HTTPClient{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		format:   format,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: limiter,
	}, nil
}

// Call sends one prediction request and returns the raw JSON body.
func (c *HTTPClient) Call(ctx context.Context, sequence string) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reqBody any
	if c.format == FormatGradio {
		reqBody = map[string]any{"data": []string{sequence}}
	} else {
		reqBody = map[string]string{"sequence": sequence}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body, maxErrorBody))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("parse response: invalid json (%d bytes)", len(body))
	}

	return json.RawMessage(body), nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func truncate(b []byte, n int) string {
	s := string(bytes.TrimSpace(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
