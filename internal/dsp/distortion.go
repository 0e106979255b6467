package dsp

// SAD returns the sum of absolute differences of two w×h blocks.
func SAD(a []uint16, aStride int, b []uint16, bStride int, w, h int) uint64 {
	var sum uint64
	for y := 0; y < h; y++ {
		sum += sadRow(a[y*aStride:y*aStride+w], b[y*bStride:y*bStride+w])
	}
	return sum
}

// SSE returns the sum of squared differences of two w×h blocks.
func SSE(a []uint16, aStride int, b []uint16, bStride int, w, h int) uint64 {
	var sum uint64
	for y := 0; y < h; y++ {
		sum += sseRow(a[y*aStride:y*aStride+w], b[y*bStride:y*bStride+w])
	}
	return sum
}

func sadRowScalar(a, b []uint16) uint64 {
	b = b[:len(a)]
	var sum uint64
	for i := range a {
		d := int32(a[i]) - int32(b[i])
		if d < 0 {
			d = -d
		}
		sum += uint64(d)
	}
	return sum
}

func sseRowScalar(a, b []uint16) uint64 {
	b = b[:len(a)]
	var sum uint64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		sum += uint64(d * d)
	}
	return sum
}

// sadRowWide processes eight samples per iteration with independent
// accumulators so the compiler can keep them in vector registers.
func sadRowWide(a, b []uint16) uint64 {
	n := len(a)
	b = b[:n]
	var s0, s1, s2, s3 uint64
	i := 0
	for ; i+8 <= n; i += 8 {
		aa := a[i : i+8 : i+8]
		bb := b[i : i+8 : i+8]
		s0 += absDiff(aa[0], bb[0]) + absDiff(aa[4], bb[4])
		s1 += absDiff(aa[1], bb[1]) + absDiff(aa[5], bb[5])
		s2 += absDiff(aa[2], bb[2]) + absDiff(aa[6], bb[6])
		s3 += absDiff(aa[3], bb[3]) + absDiff(aa[7], bb[7])
	}
	for ; i < n; i++ {
		s0 += absDiff(a[i], b[i])
	}
	return s0 + s1 + s2 + s3
}

func sseRowWide(a, b []uint16) uint64 {
	n := len(a)
	b = b[:n]
	var s0, s1, s2, s3 uint64
	i := 0
	for ; i+8 <= n; i += 8 {
		aa := a[i : i+8 : i+8]
		bb := b[i : i+8 : i+8]
		s0 += sqDiff(aa[0], bb[0]) + sqDiff(aa[4], bb[4])
		s1 += sqDiff(aa[1], bb[1]) + sqDiff(aa[5], bb[5])
		s2 += sqDiff(aa[2], bb[2]) + sqDiff(aa[6], bb[6])
		s3 += sqDiff(aa[3], bb[3]) + sqDiff(aa[7], bb[7])
	}
	for ; i < n; i++ {
		s0 += sqDiff(a[i], b[i])
	}
	return s0 + s1 + s2 + s3
}

func absDiff(a, b uint16) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

func sqDiff(a, b uint16) uint64 {
	d := uint64(absDiff(a, b))
	return d * d
}

// SATD returns the Hadamard-transformed SAD of two w×h blocks. Blocks whose
// sides are multiples of eight are tiled with 8×8 transforms, others with
// 4×4 transforms. Each tile sum is normalised like the reference encoder
// ((s+1)>>1 for 4×4, (s+2)>>2 for 8×8) before accumulation.
func SATD(a []uint16, aStride int, b []uint16, bStride int, w, h int) uint64 {
	var sum uint64
	if w%8 == 0 && h%8 == 0 {
		for y := 0; y < h; y += 8 {
			for x := 0; x < w; x += 8 {
				sum += hadamard8x8(a[y*aStride+x:], aStride, b[y*bStride+x:], bStride)
			}
		}
		return sum
	}
	for y := 0; y < h; y += 4 {
		for x := 0; x < w; x += 4 {
			sum += hadamard4x4(a[y*aStride+x:], aStride, b[y*bStride+x:], bStride)
		}
	}
	return sum
}

func hadamard4x4(a []uint16, aStride int, b []uint16, bStride int) uint64 {
	var d [16]int32
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			d[y*4+x] = int32(a[y*aStride+x]) - int32(b[y*bStride+x])
		}
	}
	for y := 0; y < 4; y++ {
		wht4(d[y*4:y*4+4], 1)
	}
	for x := 0; x < 4; x++ {
		wht4(d[x:], 4)
	}
	var s uint64
	for _, v := range d {
		s += uint64(abs32(v))
	}
	return (s + 1) >> 1
}

func hadamard8x8(a []uint16, aStride int, b []uint16, bStride int) uint64 {
	var d [64]int32
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			d[y*8+x] = int32(a[y*aStride+x]) - int32(b[y*bStride+x])
		}
	}
	for y := 0; y < 8; y++ {
		wht8(d[y*8:y*8+8], 1)
	}
	for x := 0; x < 8; x++ {
		wht8(d[x:], 8)
	}
	var s uint64
	for _, v := range d {
		s += uint64(abs32(v))
	}
	return (s + 2) >> 2
}

// wht4 applies an unnormalised 4-point Walsh-Hadamard butterfly in place to
// v[0], v[step], v[2*step], v[3*step].
func wht4(v []int32, step int) {
	a0, a1, a2, a3 := v[0], v[step], v[2*step], v[3*step]
	b0, b1 := a0+a1, a0-a1
	b2, b3 := a2+a3, a2-a3
	v[0], v[step] = b0+b2, b1+b3
	v[2*step], v[3*step] = b0-b2, b1-b3
}

func wht8(v []int32, step int) {
	var t [8]int32
	for i := 0; i < 8; i++ {
		t[i] = v[i*step]
	}
	for half := 1; half < 8; half <<= 1 {
		for i := 0; i < 8; i += half << 1 {
			for j := i; j < i+half; j++ {
				x, y := t[j], t[j+half]
				t[j], t[j+half] = x+y, x-y
			}
		}
	}
	for i := 0; i < 8; i++ {
		v[i*step] = t[i]
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
