// Package config loads and validates paracord configuration from a YAML
// file, PARACORD_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/paracord/pkg/alg/appendvec"
	"github.com/Sumatoshi-tech/paracord/pkg/alg/arena"
	"github.com/Sumatoshi-tech/paracord/pkg/alg/hasher"
	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

// Sentinel validation errors.
var (
	ErrInvalidHasher      = errors.New("unknown hasher")
	ErrInvalidShards      = errors.New("shards must be between 0 and 65536")
	ErrInvalidCapacity    = errors.New("capacity must be between 0 and 4294967295")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidTimeout     = errors.New("timeouts must not be negative")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")
)

// Hasher names.
const (
	HasherMurmur3 = "murmur3"
	HasherFNV     = "fnv"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	maxShards = 1 << 16
	maxPort   = 65535
)

// Config holds all paracord configuration.
type Config struct {
	Interner  InternerConfig  `mapstructure:"interner"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// InternerConfig tunes the interners built by the CLI and server.
type InternerConfig struct {
	Hasher string `mapstructure:"hasher"`
	// Seed fixes the murmur3 seed. Zero picks a random seed per interner.
	Seed     uint32 `mapstructure:"seed"`
	Shards   int    `mapstructure:"shards"`
	Capacity int    `mapstructure:"capacity"`
	// ArenaChunk is the first arena chunk per shard, e.g. "64KiB".
	ArenaChunk string `mapstructure:"arena_chunk"`
}

// ServerConfig holds `paracord serve` settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	MaxBodySize     string        `mapstructure:"max_body_size"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OTLP export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Interner.Hasher {
	case HasherMurmur3, HasherFNV:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHasher, c.Interner.Hasher)
	}

	if c.Interner.Shards < 0 || c.Interner.Shards > maxShards {
		return fmt.Errorf("%w: %d", ErrInvalidShards, c.Interner.Shards)
	}

	if c.Interner.Capacity < 0 || uint64(c.Interner.Capacity) > appendvec.MaxLen {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Interner.Capacity)
	}

	chunk, err := c.Interner.ChunkElems()
	if err != nil {
		return err
	}

	if chunk > arena.MaxChunkElems {
		return fmt.Errorf("%w: arena_chunk %q exceeds %s", ErrInvalidSize, c.Interner.ArenaChunk,
			humanize.IBytes(arena.MaxChunkElems))
	}

	if _, err := c.Server.BodyLimit(); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 ||
		c.Server.IdleTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return ErrInvalidTimeout
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// ChunkElems returns ArenaChunk in bytes, which is also the element count
// for string interners. An empty value selects the library default.
func (ic InternerConfig) ChunkElems() (int, error) {
	return parseSize(ic.ArenaChunk, "arena_chunk")
}

// BodyLimit returns MaxBodySize in bytes. Zero means no limit.
func (sc ServerConfig) BodyLimit() (int64, error) {
	n, err := parseSize(sc.MaxBodySize, "max_body_size")

	return int64(n), err
}

func parseSize(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", ErrInvalidSize, field, raw, err)
	}

	if n > 1<<40 {
		return 0, fmt.Errorf("%w: %s %q is too large", ErrInvalidSize, field, raw)
	}

	return int(n), nil
}

// InternerOptions converts the interner section into paracord options.
// The config must have passed Validate.
func (c *Config) InternerOptions(logger *slog.Logger) []paracord.Option {
	opts := []paracord.Option{
		paracord.WithShards(c.Interner.Shards),
		paracord.WithCapacity(c.Interner.Capacity),
	}

	if n, err := c.Interner.ChunkElems(); err == nil && n > 0 {
		opts = append(opts, paracord.WithChunkElems(n))
	}

	switch {
	case c.Interner.Hasher == HasherFNV:
		opts = append(opts, paracord.WithHasher(hasher.FNV{}))
	case c.Interner.Seed != 0:
		opts = append(opts, paracord.WithHasher(hasher.Murmur3{Seed: c.Interner.Seed}))
	}

	if logger != nil {
		opts = append(opts, paracord.WithLogger(logger))
	}

	return opts
}

// Addr returns the server listen address.
func (sc ServerConfig) Addr() string {
	return net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port))
}

// SlogLevel parses Level.
func (lc LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(lc.Level))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, lc.Level)
	}

	return level, nil
}

// Observability builds the observability config for a process in mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()

	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.LogJSON = c.Logging.Format == LogFormatJSON
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio

	if level, err := c.Logging.SlogLevel(); err == nil {
		cfg.LogLevel = level
	}

	if c.Server.ShutdownTimeout > 0 {
		cfg.ShutdownTimeoutSec = int(c.Server.ShutdownTimeout / time.Second)
	}

	return cfg
}
