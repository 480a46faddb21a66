package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key uniquely identifies a cached response.
type Key struct {
	// Endpoint is the request path relative to the base URL.
	Endpoint string

	// QueryParams of the request.
	QueryParams url.Values
}

// String generates a deterministic redis key.
// Format: rest:endpoint:query1=val1:query2=val2
func (k Key) String() string {
	parts := []string{"rest"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism.
	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	return strings.Join(parts, ":")
}
