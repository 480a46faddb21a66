package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rest_client_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rest_client_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rest_client_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryPolicy controls opt-in retry behavior. The zero value disables
// retries entirely: by default no error kind is retried and the decision
// is left to the calling application.
type RetryPolicy struct {
	// MaxRetries is the number of retry attempts after the initial request.
	// Zero disables retries.
	MaxRetries int

	// InitialBackoff is the first backoff interval.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff interval.
	MaxBackoff time.Duration

	// Multiplier for exponential backoff growth.
	Multiplier float64

	// RetryClientErrors retries 4xx API errors. Usually wasteful.
	RetryClientErrors bool

	// RetryServerErrors retries 5xx API errors.
	RetryServerErrors bool
}

// DefaultRetryPolicy returns a policy retrying transport and server
// errors up to three times with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		Multiplier:        2.0,
		RetryServerErrors: true,
	}
}

func (p RetryPolicy) enabled() bool { return p.MaxRetries > 0 }

// shouldRetry reports whether an error class is retriable under the
// policy. Decode errors are deterministic and never retried.
func (p RetryPolicy) shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassTransport:
		return true
	case ErrorClassServer:
		return p.RetryServerErrors
	case ErrorClassClient:
		return p.RetryClientErrors
	default:
		return false
	}
}

// withRetry runs fn under the client's retry policy. With retries
// disabled it is a single plain invocation.
func (c *Client) withRetry(ctx context.Context, endpoint string, fn func() error) error {
	policy := c.config.Retry
	if !policy.enabled() {
		return fn()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialBackoff
	bo.MaxInterval = policy.MaxBackoff
	bo.Multiplier = policy.Multiplier
	bo.MaxElapsedTime = 0

	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			err := fn()
			if err == nil {
				if attempts > 1 {
					c.logger.Info().
						Str("endpoint", endpoint).
						Int("attempt", attempts).
						Msg("Request succeeded after retry")
				}
				return nil
			}
			if !policy.shouldRetry(Classify(err)) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxRetries)), ctx),
		func(err error, wait time.Duration) {
			class := string(Classify(err))
			retriesTotal.WithLabelValues(class).Inc()
			retryBackoffSeconds.WithLabelValues(class).Observe(wait.Seconds())

			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("error_class", class).
				Dur("backoff", wait).
				Msg("Retrying request after backoff")
		},
	)

	if err != nil && attempts > policy.MaxRetries && !errors.Is(err, context.Canceled) {
		class := string(Classify(err))
		retryExhaustedTotal.WithLabelValues(class).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("error_class", class).
			Int("max_retries", policy.MaxRetries).
			Msg("Retry attempts exhausted")
	}

	return err
}
