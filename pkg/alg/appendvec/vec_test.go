package appendvec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index  uint64
		bucket int
		offset int
	}{
		{0, 0, 0},
		{31, 0, 31},
		{32, 1, 0},
		{95, 1, 63},
		{96, 2, 0},
		{MaxLen - 1, numBuckets - 1, 30},
	}

	for _, tt := range tests {
		bucket, offset := location(tt.index)
		assert.Equal(t, tt.bucket, bucket, "bucket of %d", tt.index)
		assert.Equal(t, tt.offset, offset, "offset of %d", tt.index)
	}
}

func TestPushGet(t *testing.T) {
	t.Parallel()

	v := New[string](0)

	assert.Equal(t, 0, v.Push("a"))
	assert.Equal(t, 1, v.Push("b"))

	got, ok := v.Get(1)
	require.True(t, ok)
	assert.Equal(t, "b", got)
	assert.Equal(t, "a", v.GetUnchecked(0))
	assert.Equal(t, 2, v.Len())
}

func TestPushWith_ReceivesIndex(t *testing.T) {
	t.Parallel()

	v := New[int](0)

	for range 100 {
		v.PushWith(func(index int) int { return index * 10 })
	}

	for i := range 100 {
		got, ok := v.Get(i)
		require.True(t, ok)
		assert.Equal(t, i*10, got)
	}
}

func TestGet_OutOfRange(t *testing.T) {
	t.Parallel()

	v := New[int](64)
	v.Push(1)

	_, ok := v.Get(-1)
	assert.False(t, ok)

	_, ok = v.Get(1)
	assert.False(t, ok)

	_, ok = v.Get(1 << 40)
	assert.False(t, ok)
}

func TestAll_InsertionOrder(t *testing.T) {
	t.Parallel()

	v := New[int](0)
	for i := range 200 {
		v.Push(i)
	}

	next := 0
	for index, value := range v.All() {
		assert.Equal(t, next, index)
		assert.Equal(t, next, value)
		next++
	}

	assert.Equal(t, 200, next)
}

func TestAll_EarlyStop(t *testing.T) {
	t.Parallel()

	v := New[int](0)
	for i := range 10 {
		v.Push(i)
	}

	seen := 0
	for range v.All() {
		seen++
		if seen == 3 {
			break
		}
	}

	assert.Equal(t, 3, seen)
}

func TestClear(t *testing.T) {
	t.Parallel()

	v := New[string](0)
	for range 100 {
		v.Push("x")
	}

	size := v.Size()
	v.Clear()

	assert.Equal(t, 0, v.Len())
	_, ok := v.Get(0)
	assert.False(t, ok)
	assert.Equal(t, size, v.Size(), "buckets are retained")

	assert.Equal(t, 0, v.Push("y"))
}

func TestNew_PreallocatesBuckets(t *testing.T) {
	t.Parallel()

	v := New[uint64](100)

	// 100 entries span buckets 0 (32) and 1 (64) and 2 (128).
	assert.NotNil(t, v.buckets[0].Load())
	assert.NotNil(t, v.buckets[2].Load())
	assert.Nil(t, v.buckets[3].Load())
}

func TestConcurrentPush_DenseUnique(t *testing.T) {
	t.Parallel()

	const (
		workers   = 8
		perWorker = 1000
	)

	v := New[int](0)

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range perWorker {
				v.Push(w*perWorker + i)
			}
		}()
	}

	wg.Wait()

	require.Equal(t, workers*perWorker, v.Len())

	seen := make(map[int]bool, workers*perWorker)
	count := 0

	for index, value := range v.All() {
		assert.Equal(t, count, index)
		assert.False(t, seen[value])
		seen[value] = true
		count++
	}

	assert.Equal(t, workers*perWorker, count)
}

func BenchmarkPush(b *testing.B) {
	v := New[int](0)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			v.Push(1)
		}
	})
}
