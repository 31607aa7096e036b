// Package safeconv provides integer narrowing helpers that panic when a value
// does not fit the target type.
//
// The interner treats these conditions as structural exhaustion, so the panic
// messages are part of its contract.
package safeconv

import "math"

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// MustLenToUint32 converts a slice length to uint32. Lengths equal to
// MaxUint32 are rejected as well, since that pattern is reserved by callers.
func MustLenToUint32(n int) uint32 {
	if n < 0 || uint64(n) >= uint64(MaxUint32) {
		panic("safeconv: length exceeds uint32 range")
	}

	return uint32(n)
}

// Uint32ToInt widens v to int. It never fails on 64-bit platforms.
func Uint32ToInt(v uint32) int {
	if uint64(v) > uint64(math.MaxInt) {
		panic("safeconv: uint32 to int overflow")
	}

	return int(v)
}
