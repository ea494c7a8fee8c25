package fulltext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/labsignal/evidence-service/internal/domain"
)

// maxResponseBytes caps how much of an upstream response body is read.
const maxResponseBytes = 20 << 20

// ClientConfig configures the retrying HTTP client.
type ClientConfig struct {
	// Source names the upstream for error reporting.
	Source string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxAttempts is the total attempt ceiling, first try included.
	MaxAttempts int

	// BaseDelay is the base backoff delay. The nth retry after a server
	// or transport error waits BaseDelay * 2^(n-1) plus jitter.
	BaseDelay time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// APIKey and APIKeyHeader configure optional header authentication.
	APIKey       string
	APIKeyHeader string

	// EnableCookies installs a cookie jar, for upstreams whose session
	// state lives in cookies.
	EnableCookies bool
}

func (c *ClientConfig) applyDefaults() {
	if c.Source == "" {
		c.Source = "upstream"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 4
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "labsignal-evidence-service/1.0"
	}
}

// Client wraps http.Client with the shared rate limiter and the retry
// policy used by every retriever:
//
//   - every attempt first acquires a permit from the shared Limiter;
//   - HTTP 5xx and transport errors retry with exponential backoff and jitter;
//   - HTTP 429 sleeps for the server-provided Retry-After (or BaseDelay)
//     and retries without raising the backoff exponent;
//   - other HTTP 4xx fail immediately as domain.PermanentError;
//   - exhausting MaxAttempts yields domain.ExhaustedError.
//
// No response is cached inside the client. Safe for concurrent use.
type Client struct {
	client  *http.Client
	limiter Limiter
	config  ClientConfig
}

// NewClient creates a retrying HTTP client. The limiter is shared by the
// caller across all clients; a nil limiter means no pacing.
func NewClient(cfg ClientConfig, limiter Limiter) *Client {
	cfg.applyDefaults()
	if limiter == nil {
		limiter = NopLimiter{}
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.EnableCookies {
		// cookiejar.New never fails with nil options.
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}
	return &Client{
		client:  httpClient,
		limiter: limiter,
		config:  cfg,
	}
}

// Do executes the request with rate limiting and retries. The request body
// is re-materialized from GetBody on retry; requests with a body but no
// GetBody are not retried safely and should be built with http.NewRequest,
// which sets GetBody for common body types.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	var lastErr error
	lastStatus := 0
	backoffExp := 0

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			// Transport-level failure: retry with backoff.
			lastErr = fmt.Errorf("request failed: %w", err)
			lastStatus = 0
			backoffExp++
			if attempt < c.config.MaxAttempts {
				if err := c.prepareRetry(req, c.backoffDelay(backoffExp)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			delay := retryAfter(resp, c.config.BaseDelay)
			drain(resp)
			lastErr = &domain.RateLimitError{Source: c.config.Source, RetryAfter: delay}
			lastStatus = resp.StatusCode
			// Server-directed delay; does not count against the backoff
			// exponent, but still consumes an attempt.
			if attempt < c.config.MaxAttempts {
				if err := c.prepareRetry(req, delay); err != nil {
					return nil, err
				}
				continue
			}

		case resp.StatusCode >= 500:
			drain(resp)
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			lastStatus = resp.StatusCode
			backoffExp++
			if attempt < c.config.MaxAttempts {
				if err := c.prepareRetry(req, c.backoffDelay(backoffExp)); err != nil {
					return nil, err
				}
				continue
			}

		case resp.StatusCode >= 400:
			// Permanent client error: never retried.
			drain(resp)
			return nil, &domain.PermanentError{Source: c.config.Source, StatusCode: resp.StatusCode}

		default:
			return resp, nil
		}
	}

	return nil, &domain.ExhaustedError{
		Source:     c.config.Source,
		Attempts:   c.config.MaxAttempts,
		LastStatus: lastStatus,
		Cause:      lastErr,
	}
}

// Get issues a GET with query parameters and returns the response body.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if params != nil {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// GetJSON issues a GET and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	body, err := c.Get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewParseError(c.config.Source, "failed to decode JSON response", err)
	}
	return nil
}

// backoffDelay returns the delay before the nth backoff-counted retry:
// BaseDelay * 2^(n-1) plus jitter of up to half the base delay.
func (c *Client) backoffDelay(n int) time.Duration {
	delay := c.config.BaseDelay << (n - 1)
	jitter := time.Duration(rand.Int63n(int64(c.config.BaseDelay)/2 + 1))
	return delay + jitter
}

// prepareRetry sleeps for the delay (respecting cancellation) and resets
// the request body for the next attempt.
func (c *Client) prepareRetry(req *http.Request, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
	}

	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("cannot retry request: %w", err)
		}
		req.Body = body
	}
	return nil
}

// retryAfter parses the Retry-After header as seconds or an HTTP date,
// falling back to the default delay.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return fallback
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
