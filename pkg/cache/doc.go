// Package cache provides an optional redis-backed cache for GET responses,
// with ETag and Last-Modified support for conditional requests.
//
// The cache is transparent to callers: when a client is configured with a
// redis connection, successful GET responses that carry freshness headers
// are stored, and later requests for the same endpoint either hit the
// cache directly or go out as conditional requests (If-None-Match /
// If-Modified-Since). A 304 answer is served from the stored entry with
// its TTL refreshed.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint:    "/v1/items",
//		QueryParams: url.Values{"size": []string{"10"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
// # Metrics
//
// The manager exports Prometheus metrics:
//
//   - rest_client_cache_hits_total
//   - rest_client_cache_misses_total
//   - rest_client_cache_errors_total{operation}
//   - rest_client_304_responses_total
//   - rest_client_conditional_requests_total
package cache
