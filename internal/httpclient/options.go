// Package httpclient builds the instrumented HTTP client the JSON-RPC
// connection runs over.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type options struct {
	meterProvider  metric.MeterProvider
	name           string
	base           http.RoundTripper
	requestTimeout time.Duration
	headers        map[string]string
}

// Option configures New.
type Option func(*options)

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithName labels metrics and spans, e.g. "bsc-rpc".
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithRoundTripper replaces the pooled base transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithRequestTimeout bounds each HTTP exchange. Zero means no client
// timeout, leaving deadlines to the caller's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithHeaders adds headers to every request, e.g. provider API keys.
func WithHeaders(h map[string]string) Option {
	return func(o *options) { o.headers = h }
}
