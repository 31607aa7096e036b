package paracord

import (
	"cmp"
	"math"
	"strconv"

	"github.com/Sumatoshi-tech/paracord/pkg/safeconv"
)

// Key identifies an interned value within the interner that produced it.
//
// A Key is 32 bits wide and the zero Key is never issued, so the zero value
// doubles as "no key" without extra storage. Keys are comparable and may be
// used as map keys. Their order is defined over an opaque representation and
// carries no meaning.
type Key struct {
	// raw is the insertion index complemented, so index 0 maps to all ones
	// and raw 0 stays free.
	raw uint32
}

// keyFromIndex builds the key for a zero-based insertion index.
// It panics when index cannot be represented.
func keyFromIndex(index int) Key {
	if index < 0 || uint64(index) >= math.MaxUint32 {
		panic("paracord: key space exhausted")
	}

	return Key{raw: uint32(index) ^ math.MaxUint32}
}

// KeyFromRepr recreates the key whose Repr is repr. It reports false for the
// one pattern no key can have. The only guarantee is that it inverts Repr.
func KeyFromRepr(repr uint32) (Key, bool) {
	k := Key{raw: repr ^ math.MaxUint32}

	return k, k.raw != 0
}

// Repr returns the 32-bit representation of k, currently its insertion index.
// KeyFromRepr is its inverse.
func (k Key) Repr() uint32 {
	return k.raw ^ math.MaxUint32
}

// Index returns the insertion index of k.
func (k Key) Index() int {
	return safeconv.Uint32ToInt(k.Repr())
}

// Valid reports whether k is a real key rather than the zero Key.
func (k Key) Valid() bool {
	return k.raw != 0
}

// Compare orders keys by their opaque representation.
func (k Key) Compare(other Key) int {
	return cmp.Compare(k.raw, other.raw)
}

// String returns a debug form of the key.
func (k Key) String() string {
	if !k.Valid() {
		return "Key(invalid)"
	}

	return "Key(" + strconv.FormatUint(uint64(k.Repr()), 10) + ")"
}
