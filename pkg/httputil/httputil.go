// Package httputil is a small JSON over HTTP client shared by the adapters
// of the external services, with optional rate limiting and circuit
// breaking.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shieldpay/shieldpay-sdk/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const DefaultTimeout = 30 * time.Second

// StatusError is returned for responses with a non 2xx status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) <= 0 {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, body)
}

// Client sends JSON requests to a base url.
type Client struct {
	baseURL string
	http    *http.Client
	limiter ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
	headers map[string]string
}

type Option func(c *Client)

// WithRateLimit limits the client to rate requests per second. A rate <= 0
// means unlimited.
func WithRateLimit(rate int) Option {
	return func(c *Client) {
		if rate > 0 {
			c.limiter = ratelimit.New(rate)
		}
	}
}

// WithCircuitBreaker protects the client with a circuit breaker with the
// given name.
func WithCircuitBreaker(name string) Option {
	return func(c *Client) {
		c.cb = circuitbreaker.NewCircuitBreaker(name)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: ratelimit.NewUnlimited(),
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get decodes the JSON response of a GET request to path into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends in as JSON body and decodes the response into out, if not nil.
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends a request with optional JSON body. Responses with non 2xx status
// are returned as *StatusError.
func (c *Client) Do(
	ctx context.Context, method, path string, in, out interface{},
) error {
	if c.cb == nil {
		return c.do(ctx, method, path, in, out)
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, path, in, out)
	})
	return err
}

func (c *Client) do(
	ctx context.Context, method, path string, in, out interface{},
) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	c.limiter.Take()

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(buf)}
	}

	if out == nil || len(buf) <= 0 {
		return nil
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (c *Client) url(path string) string {
	if len(path) <= 0 {
		return c.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}
