package randomorg

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubFetcher struct {
	body  string
	err   error
	calls int

	endpoint string
	params   url.Values
	timeout  time.Duration
}

func (s *stubFetcher) FetchText(_ context.Context, endpoint string, params url.Values, timeout time.Duration) (string, error) {
	s.calls++
	s.endpoint = endpoint
	s.params = params
	s.timeout = timeout
	return s.body, s.err
}

func TestClient_FetchInteger(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"plain", "7", 7},
		{"trailing newline", "7\n", 7},
		{"surrounding whitespace", "  42 \r\n", 42},
		{"negative", "-5\n", -5},
		{"zero", "0\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &stubFetcher{body: tt.body}
			c := New(f, WithLogger(zaptest.NewLogger(t)))

			got, err := c.FetchInteger(context.Background(), -10, 100, time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, f.calls)
		})
	}
}

func TestClient_FetchInteger_Request(t *testing.T) {
	f := &stubFetcher{body: "3\n"}
	c := New(f)

	_, err := c.FetchInteger(context.Background(), 1, 6, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, f.endpoint)
	assert.Equal(t, DefaultTimeout, f.timeout)
	assert.Equal(t, url.Values{
		"num":    {"1"},
		"min":    {"1"},
		"max":    {"6"},
		"col":    {"1"},
		"base":   {"10"},
		"format": {"plain"},
		"rnd":    {"new"},
	}, f.params)
}

func TestClient_FetchInteger_Options(t *testing.T) {
	f := &stubFetcher{body: "1"}
	c := New(f, WithEndpoint("http://localhost:9999/integers/"), WithEndpoint(""))

	_, err := c.FetchInteger(context.Background(), 1, 1, 250*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/integers/", c.Endpoint())
	assert.Equal(t, "http://localhost:9999/integers/", f.endpoint)
	assert.Equal(t, 250*time.Millisecond, f.timeout)
}

func TestClient_FetchInteger_ResponseFormat(t *testing.T) {
	bodies := []string{
		"",
		"   \n",
		"abc",
		"<html><body>Service Unavailable</body></html>",
		"7.5",
		"7 8",
		"7abc",
		"7\nError: quota exceeded",
		"99999999999999999999",
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c := New(&stubFetcher{body: body}, WithLogger(zaptest.NewLogger(t)))

			_, err := c.FetchInteger(context.Background(), 1, 10, time.Second)

			var ferr *ResponseFormatError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, body, ferr.Body)
			assert.Contains(t, err.Error(), "unexpected random.org response")
		})
	}
}

func TestClient_FetchInteger_TransportErrorUnchanged(t *testing.T) {
	cause := errors.New("network down")
	c := New(&stubFetcher{err: cause})

	_, err := c.FetchInteger(context.Background(), 1, 10, time.Second)

	assert.Same(t, cause, err)
	var ferr *ResponseFormatError
	assert.False(t, errors.As(err, &ferr))
}

func TestClient_FetchInteger_OutOfRangeTrusted(t *testing.T) {
	c := New(&stubFetcher{body: "500\n"})

	got, err := c.FetchInteger(context.Background(), 1, 10, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got)
}
