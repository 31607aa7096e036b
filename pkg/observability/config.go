// Package observability wires structured logging, tracing and metrics for
// the paracord CLI and server.
package observability

import "log/slog"

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot CLI command.
	ModeCLI AppMode = "cli"
	// ModeServe is the long-running HTTP server.
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName        = "paracord"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "production".
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export. Prometheus metrics are always available.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio in (0, 1]. Zero samples everything.
	SampleRatio float64

	// LogLevel is the minimum slog severity.
	LogLevel slog.Level

	// LogJSON switches log output from text to JSON.
	LogJSON bool

	// ShutdownTimeoutSec bounds how long Shutdown waits for a flush.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config usable without any setup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
