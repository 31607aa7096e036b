package paracord

import (
	"log/slog"

	"github.com/Sumatoshi-tech/paracord/pkg/alg/hasher"
)

// Option configures an interner.
type Option func(*config)

type config struct {
	hasher     hasher.Hasher
	shards     int
	capacity   int
	chunkElems int
	logger     *slog.Logger
}

func buildConfig(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.hasher == nil {
		cfg.hasher = hasher.NewRandomMurmur3()
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	return cfg
}

// WithHasher sets the content hasher. The default is murmur3 with a random seed.
func WithHasher(h hasher.Hasher) Option {
	return func(c *config) {
		c.hasher = h
	}
}

// WithShards sets the number of index shards (rounded up to a power of two).
// The default is four shards per available processor.
func WithShards(n int) Option {
	return func(c *config) {
		c.shards = n
	}
}

// WithCapacity presizes the index and key store for n values.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithChunkElems sets the first arena chunk size, in elements, of every shard.
func WithChunkElems(n int) Option {
	return func(c *config) {
		c.chunkElems = n
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
