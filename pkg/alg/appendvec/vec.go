// Package appendvec provides a concurrent, append-only vector with dense,
// monotonically assigned indices and lock-free reads.
//
// Storage is split into buckets of doubling size that are allocated on first
// use and never moved, so a published slot stays readable at the same place
// until Clear. Appenders reserve an index with a single atomic add, write the
// slot, then publish it; readers only ever observe published slots.
package appendvec

import (
	"iter"
	"math"
	"math/bits"
	"sync/atomic"
	"unsafe"
)

const (
	// firstBucketBits sets the first bucket size to 1<<firstBucketBits slots.
	firstBucketBits = 5
	firstBucketSize = 1 << firstBucketBits

	// MaxLen is the number of indices a Vec can hand out. Indices stay below
	// math.MaxUint32, leaving one 32-bit pattern free for callers to reserve.
	MaxLen = math.MaxUint32

	// numBuckets covers indices up to MaxLen.
	numBuckets = 32 - firstBucketBits + 1
)

type slot[T any] struct {
	value T
	ready atomic.Bool
}

// Vec is an append-only vector safe for concurrent PushWith, Get, Len and All.
// Clear requires exclusive access.
type Vec[T any] struct {
	buckets  [numBuckets]atomic.Pointer[[]slot[T]]
	reserved atomic.Uint64 // Next index to hand out.
	count    atomic.Uint64 // Published slots.
}

// New creates a Vec with buckets preallocated for capacity entries.
func New[T any](capacity int) *Vec[T] {
	v := &Vec[T]{}

	if capacity > 0 {
		last, _ := location(min(uint64(capacity), MaxLen) - 1)
		for b := range last + 1 {
			v.bucket(b)
		}
	}

	return v
}

// location maps an index to its bucket and offset inside the bucket.
func location(index uint64) (bucket, offset int) {
	pos := index + firstBucketSize
	bucket = bits.Len64(pos) - 1 - firstBucketBits
	offset = int(pos - (uint64(1) << (bucket + firstBucketBits)))

	return bucket, offset
}

// bucketLen returns the slot count of bucket b.
func bucketLen(b int) int {
	return firstBucketSize << b
}

// bucket returns bucket b, allocating it if needed. Racing allocators agree on
// the first one stored; the rest are dropped.
func (v *Vec[T]) bucket(b int) []slot[T] {
	if p := v.buckets[b].Load(); p != nil {
		return *p
	}

	fresh := make([]slot[T], bucketLen(b))
	if v.buckets[b].CompareAndSwap(nil, &fresh) {
		return fresh
	}

	return *v.buckets[b].Load()
}

// PushWith reserves the next index, stores build(index) there and publishes
// it. The value is readable through Get as soon as PushWith returns.
// PushWith panics when MaxLen indices have been handed out.
func (v *Vec[T]) PushWith(build func(index int) T) int {
	index := v.reserved.Add(1) - 1
	if index >= MaxLen {
		panic("appendvec: index space exhausted")
	}

	b, off := location(index)
	s := &v.bucket(b)[off]

	s.value = build(int(index))
	s.ready.Store(true)
	v.count.Add(1)

	return int(index)
}

// Push appends value and returns its index.
func (v *Vec[T]) Push(value T) int {
	return v.PushWith(func(int) T { return value })
}

// Get returns the value at index if it has been published.
func (v *Vec[T]) Get(index int) (T, bool) {
	var zero T

	if index < 0 || uint64(index) >= v.reserved.Load() {
		return zero, false
	}

	b, off := location(uint64(index))

	p := v.buckets[b].Load()
	if p == nil {
		return zero, false
	}

	s := &(*p)[off]
	if !s.ready.Load() {
		return zero, false
	}

	return s.value, true
}

// GetUnchecked returns the value at index without checking that it was
// published. The caller guarantees that index came from a completed PushWith
// on this Vec since the last Clear.
func (v *Vec[T]) GetUnchecked(index int) T {
	b, off := location(uint64(index))

	return (*v.buckets[b].Load())[off].value
}

// Len returns the number of published values.
func (v *Vec[T]) Len() int {
	return int(v.count.Load())
}

// All yields (index, value) for every published slot in index order.
// Slots still being written when the walk reaches them are skipped.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		end := min(v.reserved.Load(), MaxLen)

		for index := range end {
			b, off := location(index)

			p := v.buckets[b].Load()
			if p == nil {
				continue
			}

			s := &(*p)[off]
			if !s.ready.Load() {
				continue
			}

			if !yield(int(index), s.value) {
				return
			}
		}
	}
}

// Clear empties the vector while keeping its buckets for reuse.
// It must not run concurrently with any other method.
func (v *Vec[T]) Clear() {
	end := v.reserved.Load()
	if end > 0 {
		last, _ := location(min(end, MaxLen) - 1)

		for b := range last + 1 {
			if p := v.buckets[b].Load(); p != nil {
				clear(*p)
			}
		}
	}

	v.reserved.Store(0)
	v.count.Store(0)
}

// Size returns the bytes held by allocated buckets.
func (v *Vec[T]) Size() int {
	var s slot[T]

	total := 0

	for b := range v.buckets {
		if v.buckets[b].Load() != nil {
			total += bucketLen(b) * int(unsafe.Sizeof(s))
		}
	}

	return total
}
