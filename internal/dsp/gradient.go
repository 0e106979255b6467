package dsp

// Gradients writes 3×3 Sobel responses of a w×h block into gx (horizontal)
// and gy (vertical), both w*h entries with stride w. Border responses repeat
// their nearest interior neighbour. The responses are eight times the
// per-sample derivative. w and h must be at least 3.
func Gradients(src []uint16, stride, w, h int, gx, gy []int32) {
	if w < 3 || h < 3 {
		panic("dsp: gradient block smaller than 3x3")
	}
	_ = gx[w*h-1]
	_ = gy[w*h-1]
	for y := 1; y < h-1; y++ {
		up := src[(y-1)*stride:]
		mid := src[y*stride:]
		dn := src[(y+1)*stride:]
		for x := 1; x < w-1; x++ {
			gx[y*w+x] = int32(up[x+1]) - int32(up[x-1]) +
				2*(int32(mid[x+1])-int32(mid[x-1])) +
				int32(dn[x+1]) - int32(dn[x-1])
			gy[y*w+x] = int32(dn[x-1]) - int32(up[x-1]) +
				2*(int32(dn[x])-int32(up[x])) +
				int32(dn[x+1]) - int32(up[x+1])
		}
		gx[y*w] = gx[y*w+1]
		gx[y*w+w-1] = gx[y*w+w-2]
		gy[y*w] = gy[y*w+1]
		gy[y*w+w-1] = gy[y*w+w-2]
	}
	copy(gx[:w], gx[w:2*w])
	copy(gy[:w], gy[w:2*w])
	copy(gx[(h-1)*w:h*w], gx[(h-2)*w:(h-1)*w])
	copy(gy[(h-1)*w:h*w], gy[(h-2)*w:(h-1)*w])
}

// Difference writes a - b for a w×h block into dst with stride w.
func Difference(dst []int32, a []uint16, aStride int, b []uint16, bStride int, w, h int) {
	for y := 0; y < h; y++ {
		ra := a[y*aStride : y*aStride+w]
		rb := b[y*bStride : y*bStride+w]
		d := dst[y*w : y*w+w]
		for x := range d {
			d[x] = int32(ra[x]) - int32(rb[x])
		}
	}
}
