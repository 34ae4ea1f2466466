package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Error is returned when the page cannot be retrieved
type Error struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch: %d", e.StatusCode)
	}
	return fmt.Sprintf("Failed to fetch: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var errUnsupportedScheme = errors.New("unsupported URL scheme")

// Client retrieves HTML pages
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header. Empty keeps the Go default.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithMaxBytes caps how much of the body is read
func WithMaxBytes(n int64) Option {
	return func(cl *Client) {
		cl.maxBytes = n
	}
}

// NewClient creates a new fetch client
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a single GET and returns the body decoded to UTF-8.
// Any non-2xx status is a failure. There are no retries.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", &Error{URL: rawURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &Error{URL: rawURL, Err: fmt.Errorf("%w: %q", errUnsupportedScheme, u.Scheme)}
	}
	if u.Host == "" {
		return "", &Error{URL: rawURL, Err: errors.New("invalid URL: missing host")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &Error{URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}

	// Decode to UTF-8 using Content-Type and <meta charset>
	body, err := charset.NewReader(io.LimitReader(resp.Body, c.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &Error{URL: rawURL, Err: fmt.Errorf("decoding response body: %w", err)}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", &Error{URL: rawURL, Err: fmt.Errorf("reading response body: %w", err)}
	}

	return string(data), nil
}
