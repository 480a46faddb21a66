// Package metrics provides the centralized Prometheus registry for the
// client. All metrics are defined in their respective packages (client,
// cache, ratelimit, pagination, progress) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - rest_client_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - rest_client_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - rest_client_errors_total{class} (Counter): Errors by class (transport, decode, client, server)
//
// Retry Metrics (pkg/client):
//   - rest_client_retries_total{error_class} (Counter): Retry attempts by error class
//   - rest_client_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - rest_client_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - rest_client_cache_hits_total (Counter): Cache hits
//   - rest_client_cache_misses_total (Counter): Cache misses
//   - rest_client_304_responses_total (Counter): 304 Not Modified responses
//   - rest_client_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - rest_client_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - rest_client_rate_limit_waits_total (Counter): Requests delayed by the local limiter
//   - rest_client_rate_limit_wait_seconds (Histogram): Time spent waiting for the limiter
//
// Pagination Metrics (pkg/progress):
//   - rest_client_pages_fetched_total (Counter): Pages fetched across pagination sequences
//   - rest_client_sequences_completed_total (Counter): Completed pagination sequences
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(rest_client_cache_hits_total[5m])) /
//   (sum(rate(rest_client_cache_hits_total[5m])) + sum(rate(rest_client_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(rest_client_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(rest_client_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(rest_client_304_responses_total[5m]) / rate(rest_client_requests_total[5m])
