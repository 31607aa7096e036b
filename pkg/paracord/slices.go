// Package paracord is a concurrent interner. It deduplicates values and hands
// out small, stable Keys that resolve back to the value in O(1).
//
// [Slices] interns slices of fixed-size integer elements and [Strings]
// interns strings. Both are safe for concurrent use by any number of
// goroutines, with the exception of Clear. Interned values are never
// released until the interner is cleared or dropped.
//
// Keys are only meaningful against the interner that issued them. Resolving a
// foreign key may panic or return an unrelated value.
package paracord

import (
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"unsafe"

	"github.com/Sumatoshi-tech/paracord/pkg/alg/appendvec"
	"github.com/Sumatoshi-tech/paracord/pkg/alg/hasher"
	"github.com/Sumatoshi-tech/paracord/pkg/alg/shardindex"
)

// Element is the set of element types Slices can intern. They are plain
// fixed-size values without padding, so their bytes hash deterministically.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr
}

// Slices interns []T values.
//
// Returned slices alias interner memory and must not be modified.
type Slices[T Element] struct {
	index  *shardindex.Index[T]
	store  *appendvec.Vec[[]T]
	hasher hasher.Hasher
	logger *slog.Logger

	// Metrics (atomic for lock-free reads).
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty slice interner.
func New[T Element](opts ...Option) *Slices[T] {
	cfg := buildConfig(opts)

	return newSlices[T](cfg)
}

func newSlices[T Element](cfg config) *Slices[T] {
	return &Slices[T]{
		index: shardindex.New[T](
			shardindex.WithShards(cfg.shards),
			shardindex.WithCapacity(cfg.capacity),
			shardindex.WithChunkElems(cfg.chunkElems),
			shardindex.WithLogger(cfg.logger),
		),
		store:  appendvec.New[[]T](cfg.capacity),
		hasher: cfg.hasher,
		logger: cfg.logger,
	}
}

// Collect creates an interner holding every value of seq.
func Collect[T Element](seq iter.Seq[[]T], opts ...Option) *Slices[T] {
	s := New[T](opts...)
	s.Extend(seq)

	return s
}

// bytesOf returns the raw bytes backing v without copying.
func bytesOf[T Element](v []T) []byte {
	if len(v) == 0 {
		return nil
	}

	var zero T

	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*int(unsafe.Sizeof(zero)))
}

func (s *Slices[T]) hash(v []T) uint64 {
	return s.hasher.Hash(bytesOf(v))
}

// Get returns the key of v if it has been interned. It never allocates.
func (s *Slices[T]) Get(v []T) (Key, bool) {
	raw, ok := s.index.Find(v, s.hash(v))
	if !ok {
		s.misses.Add(1)

		return Key{}, false
	}

	s.hits.Add(1)

	return Key{raw: raw}, true
}

// GetOrIntern returns the key of v, interning a copy of v if it is new.
// Concurrent calls with equal values all return the same key.
//
// GetOrIntern panics if v has math.MaxUint32 or more elements, or if the
// interner already holds math.MaxUint32 values.
func (s *Slices[T]) GetOrIntern(v []T) Key {
	return s.getOrIntern(v, false)
}

// GetOrInternStatic is GetOrIntern without the copy: when v is new, the
// interner keeps v itself. The caller must never modify v afterwards.
func (s *Slices[T]) GetOrInternStatic(v []T) Key {
	return s.getOrIntern(v, true)
}

func (s *Slices[T]) getOrIntern(v []T, static bool) Key {
	h := s.hash(v)

	if raw, ok := s.index.Find(v, h); ok {
		s.hits.Add(1)

		return Key{raw: raw}
	}

	s.misses.Add(1)

	return s.internSlow(v, h, static)
}

// internSlow inserts v under its shard's write lock. The key store entry is
// written before the index links to it.
func (s *Slices[T]) internSlow(v []T, h uint64, static bool) Key {
	raw := s.index.FindOrInsert(v, h, static, func(stored []T) uint32 {
		index := s.store.PushWith(func(int) []T { return stored })

		return keyFromIndex(index).raw
	})

	return Key{raw: raw}
}

// TryResolve returns the value of k. It reports false when no value has that
// key, such as after Clear. A key from another interner may still resolve to
// an unrelated value.
func (s *Slices[T]) TryResolve(k Key) ([]T, bool) {
	if !k.Valid() {
		return nil, false
	}

	return s.store.Get(k.Index())
}

// Resolve returns the value of k and panics if there is none.
func (s *Slices[T]) Resolve(k Key) []T {
	v, ok := s.TryResolve(k)
	if !ok {
		panic(fmt.Sprintf("paracord: key %s not found", k))
	}

	return v
}

// ResolveUnchecked returns the value of k without bounds checks. k must have
// been issued by this interner since its last Clear.
func (s *Slices[T]) ResolveUnchecked(k Key) []T {
	return s.store.GetUnchecked(k.Index())
}

// Len returns the number of interned values.
func (s *Slices[T]) Len() int {
	return s.store.Len()
}

// IsEmpty reports whether nothing has been interned.
func (s *Slices[T]) IsEmpty() bool {
	return s.Len() == 0
}

// All yields every (key, value) pair in insertion order.
// The sequence may be ranged over any number of times.
func (s *Slices[T]) All() iter.Seq2[Key, []T] {
	return func(yield func(Key, []T) bool) {
		for index, v := range s.store.All() {
			if !yield(keyFromIndex(index), v) {
				return
			}
		}
	}
}

// Extend interns every value of seq.
func (s *Slices[T]) Extend(seq iter.Seq[[]T]) {
	// Bulk input is mostly unique, so go straight to the insert path.
	for v := range seq {
		s.internSlow(v, s.hash(v), false)
	}
}

// Clear drops every interned value and invalidates every key issued so far.
// It must not run concurrently with any other method. Some capacity is
// retained for reuse.
func (s *Slices[T]) Clear() {
	n := s.store.Len()

	s.index.Clear()
	s.store.Clear()
	s.hits.Store(0)
	s.misses.Store(0)

	s.logger.Debug("interner cleared", "entries", n)
}

// CurrentMemoryUsage estimates the bytes held by the interner: the index
// tables, the shard arenas and the key store.
func (s *Slices[T]) CurrentMemoryUsage() int {
	return int(unsafe.Sizeof(*s)) + s.index.TableSize() + s.index.ArenaSize() + s.store.Size()
}

// Stats returns a snapshot of the interner's counters and footprint.
func (s *Slices[T]) Stats() Stats {
	return Stats{
		Entries:    s.Len(),
		Shards:     s.index.Shards(),
		IndexBytes: s.index.TableSize(),
		ArenaBytes: s.index.ArenaSize(),
		StoreBytes: s.store.Size(),
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
	}
}

// CacheHits returns the number of lookups that found an existing value.
func (s *Slices[T]) CacheHits() int64 { return s.hits.Load() }

// CacheMisses returns the number of lookups that did not.
func (s *Slices[T]) CacheMisses() int64 { return s.misses.Load() }
