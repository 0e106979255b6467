package dsp

// WeightedAverage blends two predictions: dst = (w0*p0 + w1*p1 + round) >> shift,
// clipped to the sample range. Equal weights (1, 1) with shift 1 give the
// default average; generalized weights use shift 3.
func WeightedAverage(dst []uint16, dstStride int, p0 []uint16, s0 int, p1 []uint16, s1 int, w, h, w0, w1, shift, bitDepth int) {
	maxVal := int32(1)<<bitDepth - 1
	round := int32(1) << (shift - 1)
	a, b := int32(w0), int32(w1)
	for y := 0; y < h; y++ {
		d := dst[y*dstStride : y*dstStride+w]
		r0 := p0[y*s0 : y*s0+w]
		r1 := p1[y*s1 : y*s1+w]
		for x := range d {
			d[x] = clipSample((a*int32(r0[x])+b*int32(r1[x])+round)>>shift, maxVal)
		}
	}
}

// ResidualTarget derives the samples the active list should predict when the
// other list's prediction is held fixed:
//
//	target = (org<<shift - wOther*other) / wCur
//
// rounded to nearest and clipped. Matching target against a candidate is
// then a proxy for matching org against the blended bi-prediction.
func ResidualTarget(dst []uint16, dstStride int, org []uint16, orgStride int, other []uint16, otherStride int, w, h, wCur, wOther, shift, bitDepth int) {
	if wCur == 0 {
		panic("dsp: zero weight for the active list")
	}
	maxVal := int32(1)<<bitDepth - 1
	for y := 0; y < h; y++ {
		d := dst[y*dstStride : y*dstStride+w]
		o := org[y*orgStride : y*orgStride+w]
		p := other[y*otherStride : y*otherStride+w]
		for x := range d {
			num := int32(o[x])<<shift - int32(wOther)*int32(p[x])
			d[x] = clipSample(roundDiv(num, int32(wCur)), maxVal)
		}
	}
}

func roundDiv(n, d int32) int32 {
	if d < 0 {
		n, d = -n, -d
	}
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}
