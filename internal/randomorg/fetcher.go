package randomorg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/randomizedcoder/trng/internal/randomorg"

// maxBodyBytes caps how much of a response is read. A plain single
// integer is a handful of bytes; error pages are larger but still small.
const maxBodyBytes = 64 << 10

// HTTPFetcher is the net/http TextFetcher.
type HTTPFetcher struct {
	client *http.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*fetcherOptions)

type fetcherOptions struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider sets the provider for both the fetch span and the
// HTTP transport span. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) FetcherOption {
	return func(o *fetcherOptions) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// NewHTTPFetcher wraps client's transport with OpenTelemetry
// instrumentation. A nil client uses a fresh http.Client.
func NewHTTPFetcher(client *http.Client, logger *zap.Logger, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := fetcherOptions{tracerProvider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	instrumented := *client
	instrumented.Transport = otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(o.tracerProvider),
	)

	return &HTTPFetcher{
		client: &instrumented,
		logger: logger,
		tracer: o.tracerProvider.Tracer(tracerName),
	}
}

// FetchText issues GET endpoint?params and returns the body as text.
// Its span is internal; the HTTP client span comes from the transport.
func (f *HTTPFetcher) FetchText(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) (string, error) {
	ctx, span := f.tracer.Start(ctx, "randomorg.FetchText",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("randomorg.endpoint", endpoint),
			attribute.String("randomorg.min", params.Get("min")),
			attribute.String("randomorg.max", params.Get("max")),
		),
	)
	defer span.End()

	body, err := f.fetch(ctx, span, endpoint, params, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return body, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, span trace.Span, endpoint string, params url.Values, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	target, err := withQuery(endpoint, params)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	f.logger.Debug("random.org fetch finished",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(data)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return string(data), nil
}

// withQuery merges params into any query already present on endpoint.
func withQuery(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	for k, vs := range params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
