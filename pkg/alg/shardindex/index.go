// Package shardindex maps value contents to 32-bit ids using a set of
// independently locked shards.
//
// Each shard owns an open-addressing table and an arena holding the copies of
// the values it indexes. Lookups take the shard's read lock. Inserts take the
// write lock and probe again before allocating, so for any content at most one
// id is ever published no matter how many goroutines race on it.
package shardindex

import (
	"log/slog"
	"math/bits"
	"runtime"
	"sync"

	"github.com/Sumatoshi-tech/paracord/pkg/alg/arena"
	"github.com/Sumatoshi-tech/paracord/pkg/safeconv"
)

const (
	// shardsPerProc is the default shard count multiplier over GOMAXPROCS.
	shardsPerProc = 4

	// MaxShards bounds the shard count.
	MaxShards = 1 << 16
)

type shard[T comparable] struct {
	mu    sync.RWMutex
	table table[T]
	arena *arena.Arena[T]
	id    int
}

// Index is a sharded content-to-id index. The zero value is not usable;
// create one with New.
type Index[T comparable] struct {
	shards []*shard[T]
	shift  uint
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*options)

type options struct {
	shards     int
	capacity   int
	chunkElems int
	logger     *slog.Logger
}

// WithShards sets the number of shards, rounded up to a power of two.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// WithCapacity sizes the shard tables for n entries in total.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithChunkElems sets the first arena chunk size of every shard.
func WithChunkElems(n int) Option {
	return func(o *options) {
		o.chunkElems = n
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// DefaultShards returns the default shard count: a power of two no smaller
// than four shards per available processor.
func DefaultShards() int {
	return ceilPow2(shardsPerProc * runtime.GOMAXPROCS(0))
}

func ceilPow2(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}

// New creates an Index.
func New[T comparable](opts ...Option) *Index[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.shards <= 0 {
		o.shards = DefaultShards()
	}

	n := min(ceilPow2(o.shards), MaxShards)

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	idx := &Index[T]{
		shards: make([]*shard[T], n),
		shift:  uint(64 - bits.TrailingZeros(uint(n))),
		logger: logger,
	}

	perShard := o.capacity / n

	for i := range idx.shards {
		idx.shards[i] = &shard[T]{
			table: newTable[T](perShard),
			arena: arena.New[T](o.chunkElems),
			id:    i,
		}
	}

	return idx
}

// shardFor picks a shard from the high bits of hash; tables use the low bits.
func (idx *Index[T]) shardFor(hash uint64) *shard[T] {
	if len(idx.shards) == 1 {
		return idx.shards[0]
	}

	return idx.shards[hash>>idx.shift]
}

// Find returns the id of v, if present. hash must be the hash of v.
func (idx *Index[T]) Find(v []T, hash uint64) (uint32, bool) {
	sh := idx.shardFor(hash)

	sh.mu.RLock()
	_, id := sh.table.find(v, hash)
	sh.mu.RUnlock()

	return id, id != 0
}

// FindOrInsert returns the id of v, inserting it if absent.
//
// It goes straight to the shard's write lock and probes there. Callers
// expecting a hit should try Find first.
//
// On insert, v is copied into the shard's arena unless static is set, in
// which case v itself is retained and must never be modified afterwards.
// publish receives the stored view and returns the non-zero id to index it
// under; it runs under the shard's write lock and must not call back into
// the Index. The id becomes visible to Find only after publish returns.
//
// FindOrInsert panics if v has MaxUint32 or more elements.
func (idx *Index[T]) FindOrInsert(v []T, hash uint64, static bool, publish func(stored []T) uint32) uint32 {
	n := safeconv.MustLenToUint32(len(v))
	sh := idx.shardFor(hash)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	// v may have been inserted since the caller's Find.
	pos, id := sh.table.find(v, hash)
	if id != 0 {
		return id
	}

	if sh.table.needsGrow() {
		sh.table.grow()
		idx.logger.Debug("shard table grown", "shard", sh.id, "slots", len(sh.table.slots))

		pos, _ = sh.table.find(v, hash)
	}

	stored := v[:len(v):len(v)]
	if !static {
		stored = sh.arena.Alloc(v)
	}

	id = publish(stored)
	if id == 0 {
		panic("shardindex: publish returned the empty id")
	}

	sh.table.put(pos, hash, stored, n, id)

	return id
}

// Len returns the number of indexed values.
func (idx *Index[T]) Len() int {
	total := 0

	for _, sh := range idx.shards {
		sh.mu.RLock()
		total += sh.table.used
		sh.mu.RUnlock()
	}

	return total
}

// Shards returns the shard count.
func (idx *Index[T]) Shards() int {
	return len(idx.shards)
}

// TableSize returns the bytes held by the shard tables.
func (idx *Index[T]) TableSize() int {
	total := 0

	for _, sh := range idx.shards {
		sh.mu.RLock()
		total += sh.table.size()
		sh.mu.RUnlock()
	}

	return total
}

// ArenaSize returns the bytes reserved by the shard arenas.
func (idx *Index[T]) ArenaSize() int {
	total := 0

	for _, sh := range idx.shards {
		sh.mu.RLock()
		total += sh.arena.Size()
		sh.mu.RUnlock()
	}

	return total
}

// Clear drops every entry and arena chunk, keeping table capacity.
// Views handed out before Clear must no longer be used.
func (idx *Index[T]) Clear() {
	for _, sh := range idx.shards {
		sh.mu.Lock()
		sh.table.reset()
		sh.arena.Reset()
		sh.mu.Unlock()
	}
}
