package client

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/veloapi/velo/pkg/auth"
)

// Config holds the client configuration. BaseURL is the only required
// field; everything else has a working zero value.
type Config struct {
	// BaseURL of the target API, e.g. "https://api.example.com".
	BaseURL string

	// DefaultHeaders are applied to every outgoing request before
	// request-specific headers.
	DefaultHeaders http.Header

	// Authenticator augments outgoing requests with credentials.
	// Defaults to auth.None.
	Authenticator auth.Authenticator

	// UserAgent header for outgoing requests.
	UserAgent string

	// Logger for client diagnostics. Nil uses a component logger derived
	// from the global zerolog logger; tests inject their own sink here.
	Logger *zerolog.Logger

	// Timeout for a single HTTP exchange.
	Timeout time.Duration

	// Redis enables the response cache when set.
	Redis *redis.Client

	// RateLimit is the sustained request rate in requests per second.
	// Zero disables client-side rate limiting.
	RateLimit float64

	// RateBurst is the rate limiter burst size.
	RateBurst int

	// Retry is the opt-in retry policy; the zero value never retries.
	Retry RetryPolicy
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Authenticator: auth.None{},
		UserAgent:     "velo/1.0",
		Timeout:       30 * time.Second,
	}
}

// envSpec is the environment shape understood by ConfigFromEnv.
type envSpec struct {
	BaseURL    string        `envconfig:"BASE_URL" required:"true"`
	UserAgent  string        `envconfig:"USER_AGENT" default:"velo/1.0"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"30s"`
	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	RateLimit  float64       `envconfig:"RATE_LIMIT"`
	RateBurst  int           `envconfig:"RATE_BURST" default:"1"`
	MaxRetries int           `envconfig:"MAX_RETRIES"`
}

// ConfigFromEnv builds a Config from prefixed environment variables, e.g.
// MYAPP_BASE_URL, MYAPP_TIMEOUT, MYAPP_REDIS_ADDR. Authentication is not
// read from the environment; set Config.Authenticator afterwards.
func ConfigFromEnv(prefix string) (Config, error) {
	var spec envSpec
	if err := envconfig.Process(prefix, &spec); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}

	cfg := DefaultConfig(spec.BaseURL)
	cfg.UserAgent = spec.UserAgent
	cfg.Timeout = spec.Timeout
	cfg.RateLimit = spec.RateLimit
	cfg.RateBurst = spec.RateBurst
	if spec.MaxRetries > 0 {
		cfg.Retry = DefaultRetryPolicy()
		cfg.Retry.MaxRetries = spec.MaxRetries
	}
	if spec.RedisAddr != "" {
		cfg.Redis = redis.NewClient(&redis.Options{Addr: spec.RedisAddr})
	}

	return cfg, nil
}

// validate checks a Config before construction.
func (cfg Config) validate() error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must be http or https (got %q)", cfg.BaseURL)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.Retry.MaxRetries)
	}
	return nil
}
