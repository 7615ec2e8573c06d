// Package randomorg draws true-random integers from the random.org
// integer generator.
package randomorg

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the random.org integer generator.
const DefaultEndpoint = "https://www.random.org/integers/"

// DefaultTimeout bounds a single fetch when the caller gives none.
const DefaultTimeout = 10 * time.Second

// Source identifies results produced by this package.
const Source = "random.org"

// TextFetcher performs a GET-style fetch and returns the raw body.
// Implementations must send Accept: text/plain and fail on network
// errors, timeouts and non-success statuses.
type TextFetcher interface {
	FetchText(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) (string, error)
}

// Client requests single integers from random.org.
type Client struct {
	fetcher  TextFetcher
	endpoint string
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the generator URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client that fetches through f.
func New(f TextFetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:  f,
		endpoint: DefaultEndpoint,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the generator URL in use.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchInteger returns one random integer in [min, max]. A non-positive
// timeout means DefaultTimeout. Fetcher errors are returned unchanged;
// an unparseable body yields a *ResponseFormatError.
//
// The trimmed body must be a whole base-10 integer. A leading-digits
// read would take "7abc", "7.5" or "7 8" as 7; those bodies are
// rejected here instead.
//
// The value is not checked against [min, max]; the service is trusted
// to honour its own bounds.
func (c *Client) FetchInteger(ctx context.Context, min, max int64, timeout time.Duration) (int64, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	body, err := c.fetcher.FetchText(ctx, c.endpoint, QueryParams(min, max), timeout)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseInt(strings.TrimSpace(body), 10, 64)
	if err != nil {
		c.logger.Warn("unexpected random.org response",
			zap.Int64("min", min),
			zap.Int64("max", max),
			zap.String("body", body),
		)
		return 0, &ResponseFormatError{Body: body}
	}

	return value, nil
}

// QueryParams builds the generator query for a single base-10 draw.
func QueryParams(min, max int64) url.Values {
	return url.Values{
		"num":    {"1"},
		"min":    {strconv.FormatInt(min, 10)},
		"max":    {strconv.FormatInt(max, 10)},
		"col":    {"1"},
		"base":   {"10"},
		"format": {"plain"},
		"rnd":    {"new"},
	}
}
