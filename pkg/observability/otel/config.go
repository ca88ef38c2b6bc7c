package otel

import (
	"fmt"
	"io"
)

// Config configures OpenTelemetry
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Exporter is the exporter type: "zipkin", "stdout", "none"
	Exporter string

	// Endpoint is the exporter endpoint URL (zipkin only)
	Endpoint string

	// SampleRate is the sampling rate (0.0 to 1.0)
	SampleRate float64

	// Output receives stdout exporter spans; nil means os.Stdout
	Output io.Writer
}

// DefaultConfig returns a default OpenTelemetry configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    "poolserver",
		ServiceVersion: "1.0.0",
		Exporter:       "none",
		SampleRate:     1.0,
	}
}

// Validate validates the configuration
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("sample rate must be between 0.0 and 1.0")
	}
	return nil
}
