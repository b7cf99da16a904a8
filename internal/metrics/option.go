package metrics

// Exporter selects where metrics are shipped.
type Exporter string

const (
	ExporterPrometheus Exporter = "prometheus"
	ExporterOTLP       Exporter = "otlp"
)

// ExporterConfig describes one metric reader.
type ExporterConfig struct {
	Exporter Exporter
	Endpoint string // otlp only
	Headers  map[string]string
	Insecure bool
}

// Config collects the provider options.
type Config struct {
	ServiceName string
	Exporters   []ExporterConfig
}

// Option mutates Config.
type Option func(*Config)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

// WithPrometheus adds a pull-based Prometheus reader.
func WithPrometheus() Option {
	return func(c *Config) {
		c.Exporters = append(c.Exporters, ExporterConfig{Exporter: ExporterPrometheus})
	}
}

// WithOTLP adds a periodic OTLP/gRPC reader.
func WithOTLP(endpoint string, headers map[string]string, insecure bool) Option {
	return func(c *Config) {
		c.Exporters = append(c.Exporters, ExporterConfig{
			Exporter: ExporterOTLP,
			Endpoint: endpoint,
			Headers:  headers,
			Insecure: insecure,
		})
	}
}
