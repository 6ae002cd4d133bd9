// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// Browser-like identity; the Columbia site serves a stripped page to unknown agents.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      defaultUserAgent,
			"Accept":          "application/json, text/html, */*",
			"Accept-Language": "en-US,en;q=0.9",
		},
	}
}

// WithHeader returns the client with an additional default header set.
func (c *Client) WithHeader(key, value string) *Client {
	c.headers[key] = value
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.applyHeaders(req)
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	c.applyHeaders(req)
	return c.httpClient.Do(req)
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
}
