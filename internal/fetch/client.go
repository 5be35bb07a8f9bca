// Package fetch provides the rate-limited HTTP client used against the
// Congress.gov and FEC APIs. Every request passes through a token bucket
// sized to the source's documented limit, and transient failures retry
// with exponential backoff.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
)

// Client is a rate-limited JSON API client bound to one source.
type Client struct {
	source     string // "congress.gov", "fec"
	baseURL    string
	apiKey     string
	keyParam   string // query parameter name carrying the key
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	backoffCap time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client. Tests use this to
// point at an httptest server transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the source base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithMinInterval overrides the pacing between requests.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff overrides the base retry backoff. Tests shrink it to keep
// retry paths fast.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoff = base }
}

// NewCongressClient returns a client for the Congress.gov v3 API.
func NewCongressClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		source:     "congress.gov",
		baseURL:    constants.CongressGovBaseURL,
		apiKey:     apiKey,
		keyParam:   "api_key",
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Every(constants.CongressGovMinInterval), 1),
		maxRetries: constants.MaxRetries,
		backoff:    constants.RetryBackoff,
		backoffCap: constants.MaxRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFECClient returns a client for the FEC API.
func NewFECClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		source:     "fec",
		baseURL:    constants.FECBaseURL,
		apiKey:     apiKey,
		keyParam:   "api_key",
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Every(constants.FECMinInterval), 1),
		maxRetries: constants.MaxRetries,
		backoff:    constants.RetryBackoff,
		backoffCap: constants.MaxRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source name this client talks to.
func (c *Client) Source() string { return c.source }

// GetJSON fetches path with the given query parameters and decodes the
// response body into out. The API key is appended automatically. Retries
// transient failures up to the retry budget with capped exponential backoff.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	fullURL, err := c.buildURL(path, params)
	if err != nil {
		return errors.NewAPIError(c.source, 0, err.Error())
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(c.backoff, c.backoffCap, attempt)
			logging.Ctx(ctx).Debug().
				Str("source", c.source).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.NewAPIError(c.source, 0, ctx.Err().Error())
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return errors.NewAPIError(c.source, 0, err.Error())
		}

		lastErr = c.doOnce(ctx, fullURL, out)
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w",
		errors.ErrRetriesExhausted, c.source, c.maxRetries+1, lastErr)
}

// GetRaw fetches a URL outside the source's base (e.g. a House Clerk XML
// ballot file) and returns the body. Still paced and retried the same way.
func (c *Client) GetRaw(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffFor(c.backoff, c.backoffCap, attempt)):
			case <-ctx.Done():
				return nil, errors.NewAPIError(c.source, 0, ctx.Err().Error())
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewAPIError(c.source, 0, err.Error())
		}

		body, lastErr = c.fetchBytes(ctx, rawURL)
		if lastErr == nil {
			return body, nil
		}
		if !errors.IsRetryable(lastErr) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %w",
		errors.ErrRetriesExhausted, c.source, c.maxRetries+1, lastErr)
}

func (c *Client) buildURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.apiKey != "" {
		q.Set(c.keyParam, c.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) doOnce(ctx context.Context, fullURL string, out interface{}) error {
	body, err := c.fetchBytes(ctx, fullURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewParseError("json", c.source, "decoding response body", err)
	}
	return nil
}

func (c *Client) fetchBytes(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.NewAPIError(c.source, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json, application/xml, text/xml")
	req.Header.Set("User-Agent", "capitolwatch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failure, status 0 marks it retryable.
		return nil, errors.NewAPIError(c.source, 0, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, errors.NewAPIError(c.source, 0, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if len(body) > 0 && len(body) < 512 {
			msg = string(body)
		}
		apiErr := errors.NewAPIError(c.source, resp.StatusCode, msg)
		apiErr.Endpoint = redactKey(fullURL, c.keyParam)
		return nil, apiErr
	}
	return body, nil
}

// backoffFor returns the delay before the given retry attempt, doubling
// from the base and capped at max.
func backoffFor(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		return max
	}
	return d
}

// redactKey strips the API key from a URL before it lands in errors or logs.
func redactKey(rawURL, keyParam string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Has(keyParam) {
		q.Set(keyParam, "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
