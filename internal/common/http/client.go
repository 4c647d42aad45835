package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin JSON-over-HTTP client with optional transport-error retries.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

type Option func(*Client)

// WithRetries retries requests that failed at the transport level. Requests
// that reached the server are never retried, whatever the status.
func WithRetries(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseDelay: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext sends req under ctx, retrying transport failures with
// exponential backoff. The body is buffered so it can be replayed.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}

	delay := c.baseDelay
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
			attemptReq.ContentLength = int64(len(body))
		}

		resp, err := c.httpClient.Do(attemptReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.maxRetries || ctx.Err() != nil {
			break
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// NewJSONRequest builds a request with payload encoded as JSON. A nil payload
// sends no body.
func NewJSONRequest(ctx context.Context, method, url string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
