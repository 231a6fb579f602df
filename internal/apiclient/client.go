// Package apiclient is a REST client for exercising the mock smart-home API
// in test scenarios. It layers retries, bearer-token handling, and request
// metrics over net/http so test code can assert on status codes and decoded
// JSON without plumbing HTTP details.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	// Transient failures (network errors, 5xx) are retried with doubling
	// backoff. 3 attempts keeps flaky-network noise out of test results
	// without masking a genuinely down service.
	maxAttempts  = 3
	retryBackoff = 250 * time.Millisecond
)

// Response is the outcome of a single API call after retries.
type Response struct {
	// StatusCode is the final HTTP status.
	StatusCode int

	// Data is the decoded JSON body, or nil when the body was empty or not JSON.
	Data any

	// Body is the raw response body.
	Body []byte

	// Headers are the response headers.
	Headers http.Header

	// Duration measures the successful attempt only, not backoff time.
	Duration time.Duration
}

// Metrics summarises the client's request counters.
type Metrics struct {
	RequestsSent    uint64
	RequestsFailed  uint64
	AvgResponseTime time.Duration
}

// Client talks to the mock API.
type Client struct {
	baseURL string
	http    *http.Client

	mu            sync.Mutex
	token         string
	requestsSent  uint64
	requestsFail  uint64
	totalDuration time.Duration
}

// New creates a client for the API at baseURL (e.g. "http://127.0.0.1:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Authenticate requests a token from the auth endpoint and stores it for
// subsequent requests. Returns the granted role.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	resp, err := c.Post(ctx, "/api/v1/auth/token", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("apiclient: authentication failed with status %d", resp.StatusCode)
	}

	body, ok := resp.Data.(map[string]any)
	if !ok {
		return "", fmt.Errorf("apiclient: unexpected token response shape")
	}
	token, _ := body["token"].(string)
	if token == "" {
		return "", fmt.Errorf("apiclient: token missing from response")
	}
	role, _ := body["role"].(string)

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return role, nil
}

// SetToken installs a bearer token directly, bypassing Authenticate.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the stored bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// GetMetrics returns a snapshot of the request counters.
func (c *Client) GetMetrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := Metrics{
		RequestsSent:   c.requestsSent,
		RequestsFailed: c.requestsFail,
	}
	if c.requestsSent > 0 {
		m.AvgResponseTime = c.totalDuration / time.Duration(c.requestsSent)
	}
	return m
}

// do runs a request with retries. Network errors and 5xx responses retry
// with doubling backoff; 4xx responses are returned immediately since
// retrying a client error cannot change the outcome.
func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encoding request body: %w", err)
		}
	}

	var lastErr error
	backoff := retryBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, method, path, payload)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("apiclient: server returned status %d", resp.StatusCode)
		}
		c.recordFailure()

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("apiclient: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("apiclient: %s %s failed after %d attempts: %w", method, path, maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: sending request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: reading response body: %w", err)
	}
	duration := time.Since(start)

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       raw,
		Headers:    httpResp.Header,
		Duration:   duration,
	}
	if len(raw) > 0 {
		var data any
		if json.Unmarshal(raw, &data) == nil {
			resp.Data = data
		}
	}

	c.mu.Lock()
	c.requestsSent++
	c.totalDuration += duration
	c.mu.Unlock()

	return resp, nil
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.requestsFail++
	c.mu.Unlock()
}
