// Package pool provides bucketed sync.Pool instances for the scratch buffers
// of the inter search (interpolation intermediates, block predictions,
// gradient images). Buffers are organized by size class, counted in
// elements, to minimize waste.
package pool

import "sync"

// Size classes for bucketed pools, in elements.
const (
	Size256  = 256
	Size1K   = 1024
	Size4K   = 4096
	Size16K  = 16384
	Size64K  = 65536
	Size256K = 262144
	Size1M   = 1048576
)

// bucketIndex returns the pool index for a given length.
func bucketIndex(n int) int {
	switch {
	case n <= Size256:
		return 0
	case n <= Size1K:
		return 1
	case n <= Size4K:
		return 2
	case n <= Size16K:
		return 3
	case n <= Size64K:
		return 4
	case n <= Size256K:
		return 5
	default:
		return 6
	}
}

var sizes = [7]int{Size256, Size1K, Size4K, Size16K, Size64K, Size256K, Size1M}

// buckets is one family of size-classed pools for element type T.
type buckets[T any] struct {
	pools [7]sync.Pool
}

func newBuckets[T any]() *buckets[T] {
	b := &buckets[T]{}
	for i := range b.pools {
		sz := sizes[i]
		b.pools[i] = sync.Pool{
			New: func() any {
				s := make([]T, sz)
				return &s
			},
		}
	}
	return b
}

func (b *buckets[T]) get(n int) []T {
	idx := bucketIndex(n)
	sp := b.pools[idx].Get().(*[]T)
	s := *sp
	if cap(s) < n {
		s = make([]T, n)
		*sp = s
		return s
	}
	s = s[:n]
	clear(s)
	return s
}

func (b *buckets[T]) put(s []T) {
	c := cap(s)
	if c < Size256 {
		return
	}
	// A slice goes back to the largest class it can fully serve.
	idx := bucketIndex(c)
	if sizes[idx] > c {
		idx--
	}
	s = s[:c]
	b.pools[idx].Put(&s)
}

var (
	int16Pools  = newBuckets[int16]()
	int32Pools  = newBuckets[int32]()
	uint16Pools = newBuckets[uint16]()
)

// GetInt16 returns a zeroed int16 slice of the requested length from the pool.
// The caller must call PutInt16 when done.
func GetInt16(n int) []int16 { return int16Pools.get(n) }

// PutInt16 returns a slice obtained from GetInt16. Slices smaller than
// Size256 are not pooled.
func PutInt16(s []int16) { int16Pools.put(s) }

// GetInt32 returns a zeroed int32 slice of the requested length from the pool.
func GetInt32(n int) []int32 { return int32Pools.get(n) }

// PutInt32 returns a slice obtained from GetInt32.
func PutInt32(s []int32) { int32Pools.put(s) }

// GetUint16 returns a zeroed sample slice of the requested length from the pool.
func GetUint16(n int) []uint16 { return uint16Pools.get(n) }

// PutUint16 returns a slice obtained from GetUint16.
func PutUint16(s []uint16) { uint16Pools.put(s) }
