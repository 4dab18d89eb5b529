package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/logger"
	"github.com/wonny/quantum/pkg/redis"
)

const (
	maxBodyBytes     = 10 << 20
	maxErrorBody     = 512
	maxRetryAfter    = 60 * time.Second
	breakerFailures  = 5
	breakerOpenDelay = 30 * time.Second
)

// Client is an HTTP client wrapper with retry logic, UA rotation, per-host breakers and logging
// ⭐ SSOT: every outbound HTTP request goes through this client
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	timeout     time.Duration
	userAgents  []string
	uaNext      atomic.Uint64
	rateLimiter *redis.RateLimiter

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker

	// overridable in tests
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int     // total attempts for retryable outcomes
	BackoffBase float64 // wait before attempt k is BackoffBase^k seconds plus jitter
	Enabled     bool
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client instances are created here only
func New(cfg *config.Config, log *logger.Logger) *Client {
	uas := cfg.Fetcher.UserAgents
	if len(uas) == 0 {
		uas = config.DefaultUserAgents
	}

	return &Client{
		httpClient: &http.Client{},
		logger:     log.WithComponent("httputil"),
		retryConfig: RetryConfig{
			MaxAttempts: cfg.Fetcher.MaxRetries + 1, // first try plus MAX_RETRIES retries
			BackoffBase: cfg.Fetcher.BackoffBase,
			Enabled:     true,
		},
		timeout:    cfg.Fetcher.RequestTimeout,
		userAgents: uas,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
		sleep:      sleepCtx,
		jitter: func() time.Duration {
			return time.Duration(rand.Int64N(int64(time.Second)))
		},
	}
}

// NewWithTimeout creates a client with a custom per-attempt timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	client := New(cfg, log)
	client.timeout = timeout
	return client
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxAttempts int, backoffBase float64) *Client {
	c.retryConfig.MaxAttempts = maxAttempts
	c.retryConfig.BackoffBase = backoffBase
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry makes every request a single attempt
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRateLimiter enables per-host rate limiting through Redis
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.rateLimiter = limiter
	return c
}

// GetJSON fetches rawURL and decodes the JSON body into dest
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, query url.Values, dest interface{}) error {
	if len(query) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("%w: bad url %q: %v", ErrClient, rawURL, err)
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	h := map[string]string{"Accept": "application/json"}
	for k, v := range headers {
		h[k] = v
	}

	body, err := c.execute(ctx, http.MethodGet, rawURL, h, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrParse, rawURL, err)
	}
	return nil
}

// GetText fetches rawURL and returns the body as a string
func (c *Client) GetText(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	body, err := c.execute(ctx, http.MethodGet, rawURL, headers, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostJSON posts payload as JSON and decodes the response into dest (nil skips decoding)
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload interface{}, dest interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	body, err := c.execute(ctx, http.MethodPost, rawURL, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}, data)
	if err != nil {
		return err
	}

	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrParse, rawURL, err)
	}
	return nil
}

// execute runs one logical request through the host breaker and the retry loop
func (c *Client) execute(ctx context.Context, method, rawURL string, headers map[string]string, payload []byte) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: bad url %q", ErrClient, rawURL)
	}

	startTime := time.Now()
	out, err := c.breaker(u.Host).Execute(func() (interface{}, error) {
		return c.doWithRetry(ctx, method, rawURL, u.Host, headers, payload)
	})
	duration := time.Since(startTime)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WithFields(map[string]interface{}{
			"host": u.Host,
			"url":  rawURL,
		}).Warn("Circuit open, request skipped")
		return nil, fmt.Errorf("%w: circuit open for %s", ErrTransport, u.Host)
	}
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      rawURL,
			"duration": duration.String(),
		}).WithError(err).Debug("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":   method,
		"url":      rawURL,
		"duration": duration.String(),
	}).Debug("HTTP request completed")

	return out.([]byte), nil
}

// doWithRetry executes the request with exponential backoff retry
func (c *Client) doWithRetry(ctx context.Context, method, rawURL, host string, headers map[string]string, payload []byte) ([]byte, error) {
	attempts := 1
	if c.retryConfig.Enabled && c.retryConfig.MaxAttempts > 1 {
		attempts = c.retryConfig.MaxAttempts
	}

	var lastErr error
	var retryAfter time.Duration

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			if retryAfter > delay {
				delay = retryAfter
			}
			if delay > maxRetryAfter {
				delay = maxRetryAfter
			}

			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
				"url":     rawURL,
			}).WithError(lastErr).Warn("Retrying HTTP request")

			if err := c.sleep(ctx, delay); err != nil {
				return nil, contextError(ctx, rawURL)
			}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx, redis.HostRateLimit(host)); err != nil {
				if ctx.Err() != nil {
					return nil, contextError(ctx, rawURL)
				}
				c.logger.WithError(err).Warn("Rate limiter unavailable, continuing")
			}
		}

		body, status, hdr, err := c.attempt(ctx, method, rawURL, headers, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, contextError(ctx, rawURL)
			}
			if errors.Is(err, context.DeadlineExceeded) {
				lastErr = fmt.Errorf("%w: %s: %v", ErrTimeout, rawURL, err)
			} else {
				lastErr = fmt.Errorf("%w: %s: %v", ErrTransport, rawURL, err)
			}
			retryAfter = 0
			continue
		}

		if status >= 200 && status < 300 {
			return body, nil
		}

		statusErr := &StatusError{
			Kind:       kindForStatus(status),
			StatusCode: status,
			URL:        rawURL,
			Body:       truncate(body, maxErrorBody),
		}
		if !IsRetryableError(status) {
			return nil, statusErr
		}

		lastErr = statusErr
		retryAfter = 0
		if status == http.StatusTooManyRequests {
			retryAfter = parseRetryAfter(hdr.Get("Retry-After"))
		}
	}

	return nil, lastErr
}

// attempt performs a single HTTP round trip bounded by the per-attempt timeout
func (c *Client) attempt(ctx context.Context, method, rawURL string, headers map[string]string, payload []byte) ([]byte, int, http.Header, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, reader)
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("User-Agent", c.nextUserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, nil, err
	}

	return body, resp.StatusCode, resp.Header, nil
}

// backoff returns BackoffBase^attempt seconds plus up to one second of jitter
func (c *Client) backoff(attempt int) time.Duration {
	base := math.Pow(c.retryConfig.BackoffBase, float64(attempt))
	return time.Duration(base*float64(time.Second)) + c.jitter()
}

func (c *Client) nextUserAgent() string {
	n := c.uaNext.Add(1) - 1
	return c.userAgents[n%uint64(len(c.userAgents))]
}

func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: breakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"host": name,
				"from": from.String(),
				"to":   to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	c.breakers[host] = cb
	return cb
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

func contextError(ctx context.Context, rawURL string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, rawURL, ctx.Err())
	}
	return fmt.Errorf("%w: %s: %v", ErrCancelled, rawURL, ctx.Err())
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
