package client

import (
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Option configures the submission client.
type Option func(*Client)

// WithHTTPClient routes requests through the provided *http.Client (useful for
// httptest servers or custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.rest = resty.NewWithClient(hc)
		}
	}
}

// WithRestyClient injects a preconfigured resty client.
func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) {
		if rc != nil {
			c.rest = rc
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with each submission.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}
