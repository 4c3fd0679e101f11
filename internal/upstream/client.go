// Package upstream is the JSON-over-HTTP glue to the downstream compute
// endpoints (search execution, hosted LLM). It is deliberately
// provider-agnostic: payloads pass through untouched and response bodies
// come back as text, so provider specifics stay behind the endpoint.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout for upstream calls.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize prevents OOM on unexpectedly large responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBodyLen limits error bodies quoted in error messages.
	maxErrorBodyLen = 500
)

// Client posts JSON payloads to a single upstream endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// New creates a client for the endpoint. A non-positive timeout uses
// DefaultTimeout.
func New(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Do posts the payload and returns the response body as text. Non-2xx
// responses are errors carrying a bounded excerpt of the body.
func (c *Client) Do(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("upstream read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(body)
		if len(excerpt) > maxErrorBodyLen {
			excerpt = excerpt[:maxErrorBodyLen]
		}
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, excerpt)
	}

	return string(body), nil
}
