package shardindex

import (
	"slices"
	"unsafe"
)

const (
	// minSlots is the smallest table size; must be a power of two.
	minSlots = 8

	// Tables grow once used/len exceeds maxLoadNum/maxLoadDen.
	maxLoadNum = 7
	maxLoadDen = 8
)

// entry is a non-owning view of an interned value plus its id.
// id 0 marks an empty slot.
type entry[T any] struct {
	hash uint64
	data *T
	n    uint32
	id   uint32
}

func (e *entry[T]) view() []T {
	return unsafe.Slice(e.data, e.n)
}

// table is an open-addressing, linear-probe table of entries.
// It never deletes, so probe chains are never broken.
type table[T comparable] struct {
	slots []entry[T]
	used  int
}

func newTable[T comparable](capacity int) table[T] {
	return table[T]{slots: make([]entry[T], slotsFor(capacity))}
}

// slotsFor returns the power-of-two table size that holds capacity entries
// under the load limit.
func slotsFor(capacity int) int {
	need := capacity*maxLoadDen/maxLoadNum + 1

	size := minSlots
	for size < need {
		size <<= 1
	}

	return size
}

// find returns the id stored for v, or 0 and the empty slot where v belongs.
func (t *table[T]) find(v []T, hash uint64) (pos int, id uint32) {
	mask := uint64(len(t.slots) - 1)

	for i := hash & mask; ; i = (i + 1) & mask {
		e := &t.slots[i]
		if e.id == 0 {
			return int(i), 0
		}

		if e.hash == hash && int(e.n) == len(v) && slices.Equal(e.view(), v) {
			return int(i), e.id
		}
	}
}

// needsGrow reports whether one more entry would exceed the load limit.
func (t *table[T]) needsGrow() bool {
	return (t.used+1)*maxLoadDen > len(t.slots)*maxLoadNum
}

// grow doubles the table and reinserts every entry.
func (t *table[T]) grow() {
	old := t.slots
	t.slots = make([]entry[T], len(old)*2)
	mask := uint64(len(t.slots) - 1)

	for _, e := range old {
		if e.id == 0 {
			continue
		}

		i := e.hash & mask
		for t.slots[i].id != 0 {
			i = (i + 1) & mask
		}

		t.slots[i] = e
	}
}

// put stores an entry at pos, which must come from a find miss on the
// current slots.
func (t *table[T]) put(pos int, hash uint64, stored []T, n, id uint32) {
	t.slots[pos] = entry[T]{
		hash: hash,
		data: unsafe.SliceData(stored),
		n:    n,
		id:   id,
	}
	t.used++
}

// reset empties the table, keeping its slots.
func (t *table[T]) reset() {
	clear(t.slots)
	t.used = 0
}

func (t *table[T]) size() int {
	var e entry[T]

	return len(t.slots) * int(unsafe.Sizeof(e))
}
