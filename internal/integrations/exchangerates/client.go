package exchangerates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shop-assistant/internal/metrics"
)

const defaultBaseURL = "https://openexchangerates.org/api"

// Rates is a rate table keyed by currency code, relative to Base.
type Rates struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("exchangerates: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client fetches the latest global rate table from an Open Exchange Rates
// compatible endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func latestURL(baseURL, appID string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/latest.json?app_id=" + url.QueryEscape(appID)
}

// Latest fetches the current rate table using appID as the credential.
func (c *Client) Latest(ctx context.Context, appID string) (Rates, error) {
	if strings.TrimSpace(appID) == "" {
		return Rates{}, errors.New("exchangerates: app id must not be empty")
	}

	u := latestURL(c.baseURL, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return Rates{}, fmt.Errorf("exchangerates: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	raw, err := c.doJSONRequest(req, redact(u))
	metrics.UpstreamRequestDuration.WithLabelValues("exchangerates").Observe(time.Since(start).Seconds())
	if err != nil {
		return Rates{}, fmt.Errorf("exchangerates: request failed: %w", err)
	}

	var payload Rates
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Rates{}, fmt.Errorf("exchangerates: decode response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return Rates{}, errors.New("exchangerates: no rates in response")
	}
	return payload, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) doJSONRequest(req *http.Request, displayURL string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = displayURL
		}
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        displayURL,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

// redact strips the credential from a URL before it lands in errors or logs.
func redact(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "?")
	return base
}
