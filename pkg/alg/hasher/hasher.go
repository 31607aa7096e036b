// Package hasher provides the seeded 64-bit content hashers used to place
// interned values into shards and probe tables.
//
// Any deterministic function of (seed, bytes) works. Swapping hashers changes
// the internal layout of an interner, never the meaning of the keys it hands out.
package hasher

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"

	"github.com/spaolacci/murmur3"
)

// Splitmix64 constants from the splitmix64 finalizer by Vigna (2014).
const (
	mixShift1 = 30
	mixMul1   = 0xbf58476d1ce4e5b9
	mixShift2 = 27
	mixMul2   = 0x94d049bb133111eb
	mixShift3 = 31

	// splitmix64Increment is the golden-ratio-derived increment
	// used in the Splitmix64 state-advance function.
	splitmix64Increment = 0x9e3779b97f4a7c15
)

// Hasher hashes a byte view of a value. Implementations must be safe for
// concurrent use and must return the same output for the same input.
type Hasher interface {
	Hash(b []byte) uint64
}

// Murmur3 is the default hasher: 64-bit MurmurHash3 with a 32-bit seed.
type Murmur3 struct {
	Seed uint32
}

// Hash implements Hasher.
func (m Murmur3) Hash(b []byte) uint64 {
	return murmur3.Sum64WithSeed(b, m.Seed)
}

// NewRandomMurmur3 returns a Murmur3 hasher with a seed drawn from crypto/rand.
// Random seeds keep the probe layout of one process unpredictable to callers
// feeding it adversarial input.
func NewRandomMurmur3() Murmur3 {
	var buf [8]byte

	_, err := rand.Read(buf[:])
	if err != nil {
		// crypto/rand never fails on supported platforms.
		panic("hasher: read random seed: " + err.Error())
	}

	return Murmur3{Seed: uint32(Splitmix64(binary.LittleEndian.Uint64(buf[:])))}
}

// FNV is an unseeded FNV-1a hasher. Useful when layouts must be reproducible
// across runs, such as in tests and benchmarks.
type FNV struct{}

// Hash implements Hasher.
func (FNV) Hash(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)

	return h.Sum64()
}

// Func adapts an ordinary function to the Hasher interface.
type Func func(b []byte) uint64

// Hash implements Hasher.
func (f Func) Hash(b []byte) uint64 {
	return f(b)
}

// Mix64 applies the splitmix64 finalizer for full-avalanche mixing.
// It does not advance any state.
func Mix64(v uint64) uint64 {
	v ^= v >> mixShift1
	v *= mixMul1
	v ^= v >> mixShift2
	v *= mixMul2
	v ^= v >> mixShift3

	return v
}

// Splitmix64 advances the state by the golden-ratio increment and applies
// the mix64 finalizer.
func Splitmix64(state uint64) uint64 {
	return Mix64(state + splitmix64Increment)
}
