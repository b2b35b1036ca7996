// Package ecfr talks to the eCFR versioner API and decomposes the returned
// title XML into scoreable section texts.
package ecfr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"regpulse/pkg/platform/sentinel"
)

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Source

// Source is the document-source boundary the ingestor consumes: full text of
// one CFR title as published on the given snapshot date, or ErrNotFound when
// the service has no version for that date.
type Source interface {
	FullTitleXML(ctx context.Context, title int, date time.Time) ([]byte, error)
}

// Client fetches title XML from the eCFR versioner API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry tunes the 429 backoff policy.
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = initialDelay
	}
}

// NewClient creates an eCFR versioner client for the given base URL
// (e.g. "https://www.ecfr.gov").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		maxRetries: 3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FullTitleXML retrieves the full XML of one title as of the snapshot date.
// 429 responses are retried with exponential backoff; 404 means the service
// has not published that title for that date and maps to ErrNotFound.
func (c *Client) FullTitleXML(ctx context.Context, title int, date time.Time) ([]byte, error) {
	url := fmt.Sprintf("%s/api/versioner/v1/full/%s/title-%d.xml",
		c.baseURL, date.Format("2006-01-02"), title)

	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		body, retryable, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable || attempt >= c.maxRetries-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *Client) get(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("read response body: %w", err)
		}
		return b, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("fetch %s: %w", url, sentinel.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("fetch %s: %w", url, sentinel.ErrUnavailable)
	default:
		return nil, false, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
}
