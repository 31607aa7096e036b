package paracord

import (
	"iter"
	"unsafe"
)

// Strings interns strings. It stores their bytes in a Slices[byte] and
// resolves keys to strings that share the interned memory.
type Strings struct {
	inner *Slices[byte]
}

// NewStrings creates an empty string interner.
func NewStrings(opts ...Option) *Strings {
	return &Strings{inner: New[byte](opts...)}
}

// CollectStrings creates a string interner holding every string of seq.
func CollectStrings(seq iter.Seq[string], opts ...Option) *Strings {
	s := NewStrings(opts...)
	s.Extend(seq)

	return s
}

// stringBytes views the bytes of str without copying. The view is only read.
func stringBytes(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}

// bytesString views interned bytes as a string. Interned bytes are never
// written again, which keeps the string immutable.
func bytesString(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Get returns the key of str if it has been interned.
func (s *Strings) Get(str string) (Key, bool) {
	return s.inner.Get(stringBytes(str))
}

// GetBytes is Get for a byte slice holding the string.
func (s *Strings) GetBytes(b []byte) (Key, bool) {
	return s.inner.Get(b)
}

// GetOrIntern returns the key of str, interning a copy if it is new.
func (s *Strings) GetOrIntern(str string) Key {
	return s.inner.GetOrIntern(stringBytes(str))
}

// GetOrInternBytes is GetOrIntern for a byte slice. b is copied on insert
// and may be reused by the caller.
func (s *Strings) GetOrInternBytes(b []byte) Key {
	return s.inner.GetOrIntern(b)
}

// GetOrInternStatic interns str without copying it. Go strings are
// immutable, so the interner can keep str's bytes as they are. Prefer it for
// long-lived strings such as literals.
func (s *Strings) GetOrInternStatic(str string) Key {
	return s.inner.GetOrInternStatic(stringBytes(str))
}

// TryResolve returns the string of k, reporting false if there is none.
func (s *Strings) TryResolve(k Key) (string, bool) {
	b, ok := s.inner.TryResolve(k)
	if !ok {
		return "", false
	}

	return bytesString(b), true
}

// Resolve returns the string of k and panics if there is none.
func (s *Strings) Resolve(k Key) string {
	return bytesString(s.inner.Resolve(k))
}

// ResolveUnchecked returns the string of k without bounds checks. k must have
// been issued by this interner since its last Clear.
func (s *Strings) ResolveUnchecked(k Key) string {
	return bytesString(s.inner.ResolveUnchecked(k))
}

// Len returns the number of interned strings.
func (s *Strings) Len() int {
	return s.inner.Len()
}

// IsEmpty reports whether nothing has been interned.
func (s *Strings) IsEmpty() bool {
	return s.inner.IsEmpty()
}

// All yields every (key, string) pair in insertion order.
func (s *Strings) All() iter.Seq2[Key, string] {
	return func(yield func(Key, string) bool) {
		for k, b := range s.inner.All() {
			if !yield(k, bytesString(b)) {
				return
			}
		}
	}
}

// Extend interns every string of seq.
func (s *Strings) Extend(seq iter.Seq[string]) {
	s.inner.Extend(func(yield func([]byte) bool) {
		for str := range seq {
			if !yield(stringBytes(str)) {
				return
			}
		}
	})
}

// Clear drops every interned string and invalidates every key issued so far.
// It must not run concurrently with any other method.
func (s *Strings) Clear() {
	s.inner.Clear()
}

// CurrentMemoryUsage estimates the bytes held by the interner.
func (s *Strings) CurrentMemoryUsage() int {
	return s.inner.CurrentMemoryUsage()
}

// Stats returns a snapshot of the interner's counters and footprint.
func (s *Strings) Stats() Stats {
	return s.inner.Stats()
}

// CacheHits returns the number of lookups that found an existing string.
func (s *Strings) CacheHits() int64 { return s.inner.CacheHits() }

// CacheMisses returns the number of lookups that did not.
func (s *Strings) CacheMisses() int64 { return s.inner.CacheMisses() }
