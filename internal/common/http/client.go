// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Client is a thin wrapper over net/http used for outbound JSON calls.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a client. A zero timeout leaves requests bounded only by their context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PostJSON sends body as an application/json POST. The caller closes the response body.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}
