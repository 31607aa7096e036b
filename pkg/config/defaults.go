package config

import "time"

// Interner defaults. Zero shards or capacity select the library default.
const (
	DefaultHasher     = HasherMurmur3
	DefaultSeed       = 0
	DefaultShards     = 0
	DefaultCapacity   = 0
	DefaultArenaChunk = "4KiB"
)

// Server defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxBodySize     = "1MiB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPHeaders  = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 0.0
)
