// Package arena provides an append-only typed allocator that hands out
// stable slices of T for the lifetime of the arena.
//
// Values are copied into large chunks and never move, are never compacted,
// and are never individually freed. The only way to release memory is Reset,
// which invalidates every slice handed out before it.
package arena

import (
	"unsafe"
)

const (
	// DefaultChunkElems is the element count of the first chunk.
	DefaultChunkElems = 4096

	// MaxChunkElems caps the chunk size, including the first chunk.
	MaxChunkElems = 1 << 20

	// dedicatedDivisor: values longer than chunk/dedicatedDivisor get their own
	// chunk so that a single large value does not waste the tail of a chunk.
	dedicatedDivisor = 4
)

// Arena holds copies of []T packed into chunks.
// It is not safe for concurrent use; callers serialize Alloc and Reset.
// Slices returned by Alloc may be read concurrently once published.
type Arena[T any] struct {
	chunks    [][]T
	current   []T // Unused tail of the newest shared chunk.
	chunkSize int
	allocated int // Elements handed out.
	reserved  int // Elements allocated in chunks.
}

// New creates an arena whose first chunk holds chunkElems elements.
// A non-positive chunkElems selects DefaultChunkElems; larger values than
// MaxChunkElems are clamped.
func New[T any](chunkElems int) *Arena[T] {
	if chunkElems <= 0 {
		chunkElems = DefaultChunkElems
	}

	chunkElems = min(chunkElems, MaxChunkElems)

	return &Arena[T]{chunkSize: chunkElems}
}

// Alloc copies src into the arena and returns the stable copy.
// The returned slice has cap == len, so appending to it reallocates
// instead of writing into neighbouring values.
func (a *Arena[T]) Alloc(src []T) []T {
	n := len(src)
	if n == 0 {
		return []T{}
	}

	if a.chunkSize == 0 {
		a.chunkSize = DefaultChunkElems
	}

	if n > a.chunkSize/dedicatedDivisor {
		dst := make([]T, n)
		copy(dst, src)

		a.chunks = append(a.chunks, dst)
		a.reserved += n
		a.allocated += n

		return dst[:n:n]
	}

	if len(a.current) < n {
		a.grow()
	}

	dst := a.current[:n:n]
	copy(dst, src)

	a.current = a.current[n:]
	a.allocated += n

	return dst
}

// grow starts a new shared chunk, doubling the chunk size up to MaxChunkElems.
func (a *Arena[T]) grow() {
	if len(a.chunks) > 0 {
		a.chunkSize = min(a.chunkSize*2, MaxChunkElems)
	}

	chunk := make([]T, a.chunkSize)
	a.chunks = append(a.chunks, chunk)
	a.current = chunk
	a.reserved += a.chunkSize
}

// Len returns the number of elements handed out.
func (a *Arena[T]) Len() int {
	return a.allocated
}

// Chunks returns the number of chunks backing the arena.
func (a *Arena[T]) Chunks() int {
	return len(a.chunks)
}

// Size returns the number of bytes reserved by the arena's chunks.
func (a *Arena[T]) Size() int {
	var zero T

	return a.reserved * int(unsafe.Sizeof(zero))
}

// Reset drops every chunk. All slices returned earlier must no longer be
// used by the caller's data structures; the memory is released to the GC
// once nothing references it.
func (a *Arena[T]) Reset() {
	clear(a.chunks)

	a.chunks = a.chunks[:0]
	a.current = nil
	a.allocated = 0
	a.reserved = 0
}
