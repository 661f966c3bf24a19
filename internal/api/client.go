package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/surveyops/surveyctl/internal/config"
	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/http"
	"github.com/surveyops/surveyctl/internal/logging"
	"github.com/surveyops/surveyctl/internal/models"
	"github.com/surveyops/surveyctl/internal/ratelimit"
	"github.com/surveyops/surveyctl/internal/version"
)

// RequestIDHeader carries a per-call UUID so backend logs can be correlated
// with ours.
const RequestIDHeader = "X-Request-ID"

// apiMetrics tracks API usage statistics
type apiMetrics struct {
	sync.Mutex
	totalCalls  int64
	callsByPath map[string]int64
}

// Client talks to the survey backend. The session cookie lives in the
// transport's jar; Client never reads it.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	registry   *ratelimit.Registry
	limiters   map[ratelimit.Scope]*ratelimit.RateLimiter
	jar        *http.PersistentJar
	logger     *logging.Logger
	metrics    *apiMetrics
}

// NewClient creates a new API client. jar may be nil, in which case no
// session survives the process. logger may be nil.
func NewClient(cfg *config.Config, jar *http.PersistentJar, logger *logging.Logger) (*Client, error) {
	baseURL := cfg.BaseURL()
	if baseURL == "" {
		return nil, fmt.Errorf("API base URL is empty: set server.base_url or %s", config.EnvBaseURL)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Component("api")

	var cookieJar nethttp.CookieJar
	if jar != nil {
		cookieJar = jar
	}
	httpClient, err := http.NewClient(cfg, cookieJar)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Retries are opt-in (http.retry_max). With the default of 0 every
	// failure reaches the caller on the first attempt.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.HTTP.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = logging.RetryLogger{L: logger}

	registry := ratelimit.NewRegistry(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
	limiters := registry.NewLimiters()
	for scope, limiter := range limiters {
		scopeName := registry.ScopeDisplayString(scope)
		limiter.SetNotifyFunc(func(wait time.Duration, cooldown bool) {
			logger.Warn().Str("scope", scopeName).Dur("wait", wait).Bool("cooldown", cooldown).Msg("Rate limited: waiting for API capacity")
		})
	}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    baseURL,
		registry:   registry,
		limiters:   limiters,
		jar:        jar,
		logger:     logger,
		metrics:    &apiMetrics{callsByPath: make(map[string]int64)},
	}, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TotalCalls returns how many requests this client has issued.
func (c *Client) TotalCalls() int64 {
	c.metrics.Lock()
	defer c.metrics.Unlock()
	return c.metrics.totalCalls
}

// doRequest performs an HTTP request with rate limiting. Transport failures
// are wrapped with ErrNetwork; status handling is left to the caller.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*nethttp.Response, error) {
	limiter := c.limiters[c.registry.ResolveScope(method, path)]
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w: rate limiter cancelled: %w", method, path, ErrNetwork, err)
	}

	c.metrics.Lock()
	c.metrics.totalCalls++
	c.metrics.callsByPath[path]++
	c.metrics.Unlock()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Err(err).
			Msg("API call failed")
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrNetwork, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API call")

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		limiter.Drain()
		if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
			limiter.SetCooldown(time.Duration(secs) * time.Second)
		}
		c.logger.Warn().Str("method", method).Str("path", path).
			Str("retry_after", resp.Header.Get("Retry-After")).
			Msg("Throttled by backend")
	}

	return resp, nil
}

// checkStatus turns a non-2xx response into a *StatusError. It does not
// close the body.
func checkStatus(resp *nethttp.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
	se := &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}

	var er models.ErrorResponse
	if json.Unmarshal(raw, &er) == nil {
		se.Message = er.Message
		if se.Message == "" {
			se.Message = er.Error
		}
	}
	return se
}

var errEmptyBody = errors.New("empty response body")

// decode reads a JSON body into v.
func decode(resp *nethttp.Response, op string, v interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: %w", op, errEmptyBody)
		}
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// saveSession persists the cookie jar after the backend changed it.
func (c *Client) saveSession() {
	if c.jar == nil {
		return
	}
	if err := c.jar.Save(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist session cookie")
	}
}

// ClearSession forgets the local session cookie without contacting the
// backend.
func (c *Client) ClearSession() error {
	if c.jar == nil {
		return nil
	}
	return c.jar.Clear()
}
