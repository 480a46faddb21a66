// Package ratelimit gates outgoing requests with a client-side token
// bucket so a client never exceeds the rate its target API allows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rest_client_rate_limit_waits_total",
		Help: "Total number of requests delayed by the client-side rate limiter",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rest_client_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting on the client-side rate limiter",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// Limiter wraps a token bucket shared by all in-flight requests of one
// client. The zero-value behavior (nil Limiter) is "no limiting".
type Limiter struct {
	bucket *rate.Limiter
	logger zerolog.Logger
}

// New creates a limiter allowing requestsPerSecond sustained throughput
// with the given burst. Returns nil when requestsPerSecond <= 0, meaning
// rate limiting is disabled.
func New(requestsPerSecond float64, burst int, logger zerolog.Logger) *Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		logger: logger,
	}
}

// Wait blocks until a token is available or ctx is cancelled. Safe for
// concurrent use; a nil receiver is a no-op.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	if l.bucket.Allow() {
		return nil
	}

	rateLimitWaitsTotal.Inc()
	start := time.Now()

	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	waited := time.Since(start)
	rateLimitWaitSeconds.Observe(waited.Seconds())
	l.logger.Debug().
		Dur("waited", waited).
		Msg("Request delayed by rate limiter")
	return nil
}
