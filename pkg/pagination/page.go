package pagination

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// PageData carries the position of one page in a paginated sequence and
// knows how to rewrite a built HTTP request to address that page. It is
// applied after the base request is fully constructed, so pagination data
// always wins over conflicting base values.
type PageData interface {
	ApplyPage(req *http.Request) error
}

// QueryPage addresses a page through query parameters. Keys already present
// on the request are overwritten; new keys are appended.
type QueryPage map[string]string

// ApplyPage implements PageData.
func (p QueryPage) ApplyPage(req *http.Request) error {
	query := req.URL.Query()
	for k, v := range p {
		query.Set(k, v)
	}
	req.URL.RawQuery = query.Encode()
	return nil
}

// PathPage addresses a page through path segments, mapping a zero-based
// segment index to its replacement value. Indexes past the end of the
// current path append new segments, e.g. {2: "5"} turns "/nested/page"
// into "/nested/page/5".
type PathPage map[int]string

// ApplyPage implements PageData.
func (p PathPage) ApplyPage(req *http.Request) error {
	for idx := range p {
		if idx < 0 {
			return fmt.Errorf("negative path segment index %d", idx)
		}
	}

	trimmed := strings.Trim(req.URL.Path, "/")
	var segments []string
	if trimmed != "" {
		segments = strings.Split(trimmed, "/")
	}

	for idx, val := range p {
		if idx < len(segments) {
			segments[idx] = val
		}
	}

	// Segments beyond the current path are appended in index order.
	var extra []int
	for idx := range p {
		if idx >= len(segments) {
			extra = append(extra, idx)
		}
	}
	sort.Ints(extra)
	for _, idx := range extra {
		segments = append(segments, p[idx])
	}

	req.URL.Path = "/" + strings.Join(segments, "/")
	req.URL.RawPath = ""
	return nil
}
