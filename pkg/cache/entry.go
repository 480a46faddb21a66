package cache

import (
	"net/http"
	"time"
)

// Entry is one cached response.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match).
	ETag string `json:"etag"`

	// Expires is when the entry becomes stale, from the response's
	// Expires or Cache-Control header.
	Expires time.Time `json:"expires"`

	// LastModified from the response's Last-Modified header.
	LastModified time.Time `json:"last_modified"`

	// StatusCode of the cached response.
	StatusCode int `json:"status_code"`

	// Headers of the cached response.
	Headers http.Header `json:"headers"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired reports whether the entry is past its expiry.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiry, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
