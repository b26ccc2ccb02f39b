package observability

import (
	"fmt"
	"maps"
	"time"
)

const (
	// EndpointStdout writes spans and metrics to the provider's writer.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// DefaultServiceName identifies SDK telemetry when none is configured.
	DefaultServiceName = "go-myob"

	defaultMetricInterval = 30 * time.Second
	defaultExportTimeout  = 10 * time.Second
)

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// Config controls export of the SDK's call spans and metrics.
type Config struct {
	Enabled        bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	ServiceName    string `koanf:"servicename" json:"servicename" yaml:"servicename"`
	ServiceVersion string `koanf:"serviceversion" json:"serviceversion" yaml:"serviceversion"`

	// Endpoint is "stdout" or an OTLP collector address
	Endpoint string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol string            `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers  map[string]string `koanf:"headers" json:"-" yaml:"headers"`

	// SampleRate is nil when unset; an explicit 0 drops every span
	SampleRate     *float64      `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
	MetricInterval time.Duration `koanf:"metricinterval" json:"metricinterval" yaml:"metricinterval"`
	ExportTimeout  time.Duration `koanf:"exporttimeout" json:"exporttimeout" yaml:"exporttimeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "unknown"
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.SampleRate == nil {
		c.SampleRate = Float64Ptr(1.0)
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = defaultMetricInterval
	}
	if c.ExportTimeout == 0 {
		c.ExportTimeout = defaultExportTimeout
	}
	if c.Headers != nil {
		c.Headers = maps.Clone(c.Headers)
	}
}

// Validate checks an enabled configuration. Disabled configurations are
// always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate != nil && (*c.SampleRate < 0 || *c.SampleRate > 1) {
		return ErrInvalidSampleRate
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}

	switch c.Protocol {
	case ProtocolHTTP:
		return nil
	case ProtocolGRPC:
		if hasScheme(c.Endpoint) {
			return fmt.Errorf("%w: gRPC endpoint %q must be host:port", ErrInvalidEndpointFormat, c.Endpoint)
		}
		return nil
	default:
		return fmt.Errorf("protocol %q: %w", c.Protocol, ErrInvalidProtocol)
	}
}
