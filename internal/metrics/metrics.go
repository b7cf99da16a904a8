// Package metrics installs the global OpenTelemetry meter provider and
// serves the Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Provider is the installed meter provider; call Shutdown to flush readers.
type Provider interface {
	Shutdown(ctx context.Context) error
}

// NewProvider builds a meter provider from opts and installs it globally.
// With no exporter configured the global no-op provider stays in place.
func NewProvider(ctx context.Context, opts ...Option) (Provider, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	var providerOpts []sdkmetric.Option
	for _, ec := range cfg.Exporters {
		reader, err := newReader(ctx, ec)
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}
	if len(providerOpts) == 0 {
		return noopProvider{}, nil
	}

	if cfg.ServiceName != "" {
		providerOpts = append(providerOpts, sdkmetric.WithResource(
			resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
		))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

func newReader(ctx context.Context, ec ExporterConfig) (sdkmetric.Reader, error) {
	switch ec.Exporter {
	case ExporterPrometheus:
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("metrics: prometheus exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP:
		grpcOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpointURL(ec.Endpoint)}
		if len(ec.Headers) > 0 {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithHeaders(ec.Headers))
		}
		if ec.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("metrics: otlp exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	default:
		return nil, fmt.Errorf("metrics: unknown exporter %q", ec.Exporter)
	}
}

type noopProvider struct{}

func (noopProvider) Shutdown(context.Context) error { return nil }

// Server exposes /metrics for Prometheus.
type Server struct {
	srv *http.Server
}

// NewServer creates a scrape server on port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{srv: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
