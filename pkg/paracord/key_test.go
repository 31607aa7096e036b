package paracord

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromIndex_Complement(t *testing.T) {
	t.Parallel()

	k := keyFromIndex(0)

	assert.Equal(t, uint32(math.MaxUint32), k.raw)
	assert.Equal(t, uint32(0), k.Repr())
	assert.Equal(t, 0, k.Index())
	assert.True(t, k.Valid())
}

func TestKeyFromIndex_PanicsWhenExhausted(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "paracord: key space exhausted", func() {
		keyFromIndex(math.MaxUint32)
	})

	assert.PanicsWithValue(t, "paracord: key space exhausted", func() {
		keyFromIndex(-1)
	})

	assert.NotPanics(t, func() {
		keyFromIndex(math.MaxUint32 - 1)
	})
}

func TestKeyFromRepr_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, index := range []int{0, 1, 2, 1000, math.MaxUint32 - 1} {
		k := keyFromIndex(index)

		got, ok := KeyFromRepr(k.Repr())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
}

func TestKeyFromRepr_ReservedPattern(t *testing.T) {
	t.Parallel()

	k, ok := KeyFromRepr(math.MaxUint32)

	assert.False(t, ok)
	assert.False(t, k.Valid())
	assert.Equal(t, Key{}, k)
}

func TestKey_ZeroValueInvalid(t *testing.T) {
	t.Parallel()

	var k Key

	assert.False(t, k.Valid())
	assert.Equal(t, "Key(invalid)", k.String())
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Key(7)", keyFromIndex(7).String())
}

func TestKey_Compare(t *testing.T) {
	t.Parallel()

	a, b := keyFromIndex(1), keyFromIndex(2)

	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -b.Compare(a), a.Compare(b))
	assert.NotEqual(t, 0, a.Compare(b))
}
