package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxIdleConns    = 16
	defaultMaxConnsPerHost = 8
	defaultIdleConnTimeout = 2 * time.Minute

	meterName            = "github.com/fd1az/defi-trader/internal/httpclient"
	metricRequestCounter = "rpc_http_requests_total"
)

// New returns an *http.Client whose transport is traced with otelhttp and
// counts requests by status class.
func New(opts ...Option) (*http.Client, error) {
	o := &options{name: "rpc"}
	for _, opt := range opts {
		opt(o)
	}

	base := o.base
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxIdleConns:    defaultMaxIdleConns,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	counter, err := mp.Meter(meterName).Int64Counter(
		metricRequestCounter,
		metric.WithDescription("HTTP requests sent to the RPC node"),
	)
	if err != nil {
		return nil, err
	}

	counted := &countingTransport{
		next:    base,
		counter: counter,
		attrs:   metric.WithAttributes(attribute.String("provider", o.name)),
		headers: o.headers,
	}

	return &http.Client{
		Timeout: o.requestTimeout,
		Transport: otelhttp.NewTransport(
			counted,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return o.name + " " + r.Method
			}),
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}, nil
}

type countingTransport struct {
	next    http.RoundTripper
	counter metric.Int64Counter
	attrs   metric.MeasurementOption
	headers map[string]string
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.next.RoundTrip(req)

	status := "error"
	if err == nil {
		status = statusClass(resp.StatusCode)
	}
	t.counter.Add(req.Context(), 1, t.attrs, metric.WithAttributes(attribute.String("status", status)))
	return resp, err
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
