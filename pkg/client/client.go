// Package client dispatches typed request descriptors through an HTTP
// transport, applying authentication, rate limiting, optional response
// caching and opt-in retry, and decoding typed responses or a closed set
// of error kinds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/veloapi/velo/pkg/auth"
	"github.com/veloapi/velo/pkg/cache"
	"github.com/veloapi/velo/pkg/logging"
	"github.com/veloapi/velo/pkg/pagination"
	"github.com/veloapi/velo/pkg/ratelimit"
	"github.com/veloapi/velo/pkg/request"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rest_client_requests_total",
		Help: "Total requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rest_client_request_duration_seconds",
		Help:    "Request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rest_client_errors_total",
		Help: "Total errors by class",
	}, []string{"class"})
)

// Client dispatches request descriptors against one REST API. It is safe
// for concurrent use: configuration and authenticator are read-only after
// New, and every dispatch owns its own state.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Client drives pagination sequences.
var _ pagination.Dispatcher = (*Client)(nil)

// New creates a client from a validated Config.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Authenticator == nil {
		cfg.Authenticator = auth.None{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = logging.NewLogger("rest-client")
	}

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: ratelimit.New(cfg.RateLimit, cfg.RateBurst, logger),
		cache:   cacheManager,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do sends a single request and decodes the JSON response into out.
// Passing a nil out discards the response body, for endpoints whose
// response carries no payload.
func (c *Client) Do(ctx context.Context, req request.Request, out any) error {
	return c.DoPage(ctx, req, nil, out)
}

// DoPage sends one page of a paginated request: the descriptor is built
// as usual and page, when non-nil, rewrites the outgoing request last, so
// pagination-injected query keys overwrite conflicting base keys.
// It implements pagination.Dispatcher.
func (c *Client) DoPage(ctx context.Context, req request.Request, page pagination.PageData, out any) error {
	httpReq, err := c.buildRequest(ctx, req, page)
	if err != nil {
		return err
	}

	endpoint := httpReq.URL.Path
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logOutgoing(httpReq)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	// Cache lookup, GET only.
	var cachedEntry *cache.Entry
	var cacheKey cache.Key
	if c.cache != nil && httpReq.Method == http.MethodGet {
		cacheKey = cache.Key{
			Endpoint:    endpoint,
			QueryParams: httpReq.URL.Query(),
		}
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		if entry != nil {
			if !cache.ShouldMakeConditionalRequest(entry) {
				// Fresh entry without validators: serve without dispatch.
				c.logger.Debug().Str("endpoint", endpoint).Msg("Serving response from cache")
				return decodeEntry(entry, out)
			}
			cache.AddConditionalHeaders(httpReq, entry)
			cache.ConditionalRequestsSent.Inc()
			cachedEntry = entry
		}
	}

	resp, err := c.dispatch(ctx, httpReq, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 304 Not Modified: serve the cached entry and refresh its TTL.
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if refreshed, err := cache.ResponseToEntry(resp); err == nil && !refreshed.IsExpired() {
			if err := c.cache.UpdateTTL(ctx, cacheKey, refreshed.Expires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
			}
		}

		return decodeEntry(cachedEntry, out)
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		return &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	// Store cacheable GET responses.
	if c.cache != nil && httpReq.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if entry, err := cache.ResponseToEntry(resp); err == nil && entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return decodeBody(body, out)
}

// SendResult is one element of a SendAll stream.
type SendResult struct {
	// Index of the originating request in the SendAll slice.
	Index int

	// Out is the value produced by newOut and filled from the response.
	Out any

	// Err is the dispatch error, if any.
	Err error
}

// SendAll dispatches several requests sequentially, delivering results in
// request order. newOut produces the decode target for each response; a
// nil newOut discards response bodies. Failures do not stop the stream.
func (c *Client) SendAll(ctx context.Context, reqs []request.Request, newOut func() any) <-chan SendResult {
	ch := make(chan SendResult)

	go func() {
		defer close(ch)
		for i, req := range reqs {
			var out any
			if newOut != nil {
				out = newOut()
			}
			err := c.Do(ctx, req, out)

			select {
			case ch <- SendResult{Index: i, Out: out, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// buildRequest turns a descriptor into an *http.Request: URL join, body
// encoding, headers, authentication and finally pagination data.
func (c *Client) buildRequest(ctx context.Context, req request.Request, page pagination.PageData) (*http.Request, error) {
	endpoint := strings.Trim(req.Endpoint(), "/")
	rawURL := strings.TrimRight(c.config.BaseURL, "/") + "/" + endpoint

	var body io.Reader
	contentType := ""
	if bp, ok := req.(request.BodyProvider); ok {
		payload := bp.Body()
		if v, isJSON := payload.JSONValue(); isJSON {
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode request body: %w", err)
			}
			body = bytes.NewReader(encoded)
			contentType = "application/json"
		} else if form, isForm := payload.FormValues(); isForm {
			body = strings.NewReader(form.Encode())
			contentType = "application/x-www-form-urlencoded"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.Method(req), rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, vs := range c.config.DefaultHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if hp, ok := req.(request.HeaderProvider); ok {
		for k, vs := range hp.Headers() {
			for _, v := range vs {
				httpReq.Header.Set(k, v)
			}
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	httpReq.Header.Set("Accept", "application/json")

	if qp, ok := req.(request.QueryProvider); ok {
		httpReq.URL.RawQuery = qp.Query().Encode()
	}

	if err := c.config.Authenticator.Apply(httpReq); err != nil {
		return nil, fmt.Errorf("apply authentication: %w", err)
	}

	// Pagination data is applied last so its query keys win over both the
	// base query and any query-based credentials.
	if page != nil {
		if err := page.ApplyPage(httpReq); err != nil {
			return nil, fmt.Errorf("apply pagination: %w", err)
		}
	}

	return httpReq, nil
}

// dispatch executes the HTTP exchange under the retry policy and maps
// failures onto the error taxonomy.
func (c *Client) dispatch(ctx context.Context, httpReq *http.Request, endpoint string) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	err := c.withRetry(ctx, endpoint, func() error {
		attempt++
		// Rewind the body for retried attempts.
		if attempt > 1 && httpReq.GetBody != nil {
			rewound, err := httpReq.GetBody()
			if err != nil {
				return &TransportError{Err: fmt.Errorf("rewind request body: %w", err)}
			}
			httpReq.Body = rewound
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(httpReq)
		if reqErr != nil {
			errorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &TransportError{Err: reqErr}
		}

		if resp.StatusCode >= 400 {
			apiErr := responseToAPIError(resp)
			errorsTotal.WithLabelValues(string(apiErr.Class())).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(apiErr.Class())).
				Msg("API request error")
			return apiErr
		}

		return nil
	})
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	return resp, nil
}

// responseToAPIError drains an error response into an APIError.
func responseToAPIError(resp *http.Response) *APIError {
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		body = nil
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// decodeEntry replays a cached entry as an HTTP response and decodes its
// body, so cache hits and real responses share one decode path.
func decodeEntry(entry *cache.Entry, out any) error {
	resp := cache.EntryToResponse(entry)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("read cached response: %w", err)}
	}
	return decodeBody(body, out)
}

// decodeBody decodes a response body into out. A nil out discards the
// body; an empty body with a non-nil out is a decode failure.
func decodeBody(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &DecodeError{Err: err, Body: body}
	}
	return nil
}

// logOutgoing writes a diagnostic record of the raw outgoing request.
// The dump only happens when debug logging is enabled.
func (c *Client) logOutgoing(httpReq *http.Request) {
	evt := c.logger.Debug()
	if !evt.Enabled() {
		return
	}

	requestID := uuid.NewString()
	dump, err := httputil.DumpRequestOut(httpReq, true)
	if err != nil {
		evt.Str("request_id", requestID).
			Str("method", httpReq.Method).
			Str("url", httpReq.URL.String()).
			Err(err).
			Msg("Outgoing request (dump failed)")
		return
	}

	evt.Str("request_id", requestID).
		Str("method", httpReq.Method).
		Str("url", httpReq.URL.String()).
		Str("request_dump", string(dump)).
		Msg("Outgoing request")
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the response cache manager, or nil when caching is
// disabled.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}
