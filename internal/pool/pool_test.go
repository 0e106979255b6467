package pool

import (
	"runtime"
	"sync"
	"testing"
)

func TestGetPutInt16_ExactSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"256", 256},
		{"1K", 1024},
		{"4K", 4096},
		{"16K", 16384},
		{"64K", 65536},
		{"256K", 262144},
		{"1M", 1048576},
		{"500", 500},
		{"3000", 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := GetInt16(tt.size)
			if len(s) != tt.size {
				t.Errorf("GetInt16(%d): len = %d, want %d", tt.size, len(s), tt.size)
			}
			PutInt16(s)
		})
	}
}

func TestGet_MinCapacity(t *testing.T) {
	// For each size class, request a length within that class and verify
	// the capacity is at least the size class minimum.
	tests := []struct {
		name   string
		size   int
		minCap int
	}{
		{"bucket0_exact", 256, 256},
		{"bucket0_small", 100, 256},
		{"bucket1_mid", 512, 1024},
		{"bucket2_mid", 2048, 4096},
		{"bucket3_exact", 16384, 16384},
		{"bucket6_exact", 1048576, 1048576},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := GetUint16(tt.size)
			if cap(s) < tt.minCap {
				t.Errorf("GetUint16(%d): cap = %d, want >= %d", tt.size, cap(s), tt.minCap)
			}
			PutUint16(s)
		})
	}
}

func TestGet_Zeroed(t *testing.T) {
	s := GetInt32(1000)
	for i := range s {
		s[i] = int32(i) + 1
	}
	PutInt32(s)
	for i := 0; i < 4; i++ {
		s = GetInt32(1000)
		for j, v := range s {
			if v != 0 {
				t.Fatalf("GetInt32 returned dirty element %d = %d", j, v)
			}
		}
		PutInt32(s)
	}
}

func TestGet_LargeSize(t *testing.T) {
	// Lengths above 1M go to bucket 6, whose New creates 1M slices, so Get
	// must allocate when the pooled slice is too small.
	large := 2 * Size1M
	s := GetInt16(large)
	if len(s) != large {
		t.Errorf("GetInt16(%d): len = %d, want %d", large, len(s), large)
	}
	PutInt16(s)

	justOver := Size1M + 1
	s2 := GetInt16(justOver)
	if len(s2) != justOver {
		t.Errorf("GetInt16(%d): len = %d, want %d", justOver, len(s2), justOver)
	}
	PutInt16(s2)
}

func TestPut_SmallAndOddSlices(t *testing.T) {
	PutInt16(make([]int16, 100))
	PutInt16(nil)
	// A capacity between classes must only ever serve the smaller class.
	PutInt16(make([]int16, 300))
	for i := 0; i < 8; i++ {
		s := GetInt16(1024)
		if len(s) != 1024 {
			t.Fatalf("GetInt16(1024) after odd Put: len = %d", len(s))
		}
		PutInt16(s)
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		size       int
		wantBucket int
	}{
		{1, 0},
		{256, 0},
		{257, 1},
		{1024, 1},
		{1025, 2},
		{4097, 3},
		{16385, 4},
		{65537, 5},
		{262145, 6},
		{2097152, 6},
	}
	for _, tt := range tests {
		if idx := bucketIndex(tt.size); idx != tt.wantBucket {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, idx, tt.wantBucket)
		}
	}
}

func TestConcurrency(t *testing.T) {
	const goroutines = 32
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, size := range []int{128, 512, 2048, 8192, 32768} {
					s := GetUint16(size)
					if len(s) != size {
						t.Errorf("concurrent GetUint16(%d): len = %d", size, len(s))
						return
					}
					for j := range s {
						s[j] = uint16(j)
					}
					PutUint16(s)
				}
			}
		}()
	}

	wg.Wait()
}

func TestReuseAfterGC(t *testing.T) {
	const size = 4096
	s := GetInt16(size)
	s[0] = 7
	PutInt16(s)
	runtime.GC()
	s2 := GetInt16(size)
	if len(s2) != size || cap(s2) < Size4K {
		t.Fatalf("GetInt16(%d) after GC: len = %d cap = %d", size, len(s2), cap(s2))
	}
	PutInt16(s2)
}

func BenchmarkGetInt16(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"256", 256},
		{"4K", 4096},
		{"64K", 65536},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := GetInt16(bm.size)
				PutInt16(s)
			}
		})
	}
}
