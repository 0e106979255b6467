package dsp

import "github.com/deepteams/motion/internal/pool"

// Interpolation filter constants. The reference samples are widened to
// InternalPrec bits between the two passes so no precision is lost.
const (
	NumTaps      = 8
	filterPrec   = 6
	internalPrec = 14
	internalOffs = 1 << (internalPrec - 1)
)

// TapsBefore and TapsAfter are the number of reference samples the filter
// reads on each side of a block edge when the phase is fractional.
const (
	TapsBefore = NumTaps/2 - 1
	TapsAfter  = NumTaps / 2
)

// LumaFilter is the 8-tap luma filter bank indexed by quarter-sample phase.
var LumaFilter = [4][NumTaps]int32{
	{0, 0, 0, 64, 0, 0, 0, 0},
	{-1, 4, -10, 58, 17, -5, 1, 0},
	{-1, 4, -11, 40, 40, -11, 4, -1},
	{0, 1, -5, 17, 58, -10, 4, -1},
}

// Interpolate writes the w×h prediction at phase (fx, fy) of the reference
// block whose integer origin is ref[off]. It follows the decoder exactly: a
// single clipped pass when one phase is zero, otherwise a horizontal pass
// into a widened intermediate followed by a vertical pass.
//
// Reads touch ref[off-TapsBefore*(refStride+1)] through the sample TapsAfter
// past the bottom-right corner, so callers must provide a padded plane.
// tmp is optional scratch of at least (h+NumTaps-1)*w entries.
func Interpolate(dst []uint16, dstStride int, ref []uint16, refStride, off, w, h, fx, fy, bitDepth int, tmp []int16) {
	maxVal := int32(1)<<bitDepth - 1
	switch {
	case fx == 0 && fy == 0:
		for y := 0; y < h; y++ {
			copy(dst[y*dstStride:y*dstStride+w], ref[off+y*refStride:off+y*refStride+w])
		}
	case fy == 0:
		filterOnePass(dst, dstStride, ref, refStride, off, 1, w, h, &LumaFilter[fx], maxVal)
	case fx == 0:
		filterOnePass(dst, dstStride, ref, refStride, off, refStride, w, h, &LumaFilter[fy], maxVal)
	default:
		rows := h + NumTaps - 1
		need := rows * w
		pooled := false
		if len(tmp) < need {
			tmp = pool.GetInt16(need)
			pooled = true
		}
		headRoom := internalPrec - bitDepth
		filterFirst(tmp, w, ref, refStride, off-TapsBefore*refStride, w, rows, fx, headRoom)
		filterLast(dst, dstStride, tmp, w, 0, w, h, &LumaFilter[fy], headRoom, maxVal)
		if pooled {
			pool.PutInt16(tmp)
		}
	}
}

// filterOnePass applies a single 8-tap pass along step and clips to the
// sample range.
func filterOnePass(dst []uint16, dstStride int, ref []uint16, refStride, off, step, w, h int, c *[NumTaps]int32, maxVal int32) {
	const round = 1 << (filterPrec - 1)
	for y := 0; y < h; y++ {
		src := off + y*refStride - TapsBefore*step
		d := dst[y*dstStride : y*dstStride+w]
		for x := range d {
			p := src + x
			sum := c[0]*int32(ref[p]) +
				c[1]*int32(ref[p+step]) +
				c[2]*int32(ref[p+2*step]) +
				c[3]*int32(ref[p+3*step]) +
				c[4]*int32(ref[p+4*step]) +
				c[5]*int32(ref[p+5*step]) +
				c[6]*int32(ref[p+6*step]) +
				c[7]*int32(ref[p+7*step])
			d[x] = clipSample((sum+round)>>filterPrec, maxVal)
		}
	}
}

// filterFirst is the horizontal pass into the widened intermediate domain.
// Phase zero degenerates into a shifted copy.
func filterFirst(tmp []int16, tmpStride int, ref []uint16, refStride, off, w, rows, fx, headRoom int) {
	if fx == 0 {
		for y := 0; y < rows; y++ {
			src := ref[off+y*refStride : off+y*refStride+w]
			t := tmp[y*tmpStride : y*tmpStride+w]
			for x, v := range src {
				t[x] = int16(int32(v)<<headRoom - internalOffs)
			}
		}
		return
	}
	c := &LumaFilter[fx]
	shift := filterPrec - headRoom
	offset := int32(-internalOffs) << shift
	for y := 0; y < rows; y++ {
		src := off + y*refStride - TapsBefore
		t := tmp[y*tmpStride : y*tmpStride+w]
		for x := range t {
			p := src + x
			sum := c[0]*int32(ref[p]) +
				c[1]*int32(ref[p+1]) +
				c[2]*int32(ref[p+2]) +
				c[3]*int32(ref[p+3]) +
				c[4]*int32(ref[p+4]) +
				c[5]*int32(ref[p+5]) +
				c[6]*int32(ref[p+6]) +
				c[7]*int32(ref[p+7])
			t[x] = int16((sum + offset) >> shift)
		}
	}
}

// filterLast is the vertical pass out of the intermediate domain. The
// intermediate rows start TapsBefore rows above output row 0, at tmp[off].
func filterLast(dst []uint16, dstStride int, tmp []int16, tmpStride, off, w, h int, c *[NumTaps]int32, headRoom int, maxVal int32) {
	shift := filterPrec + headRoom
	offset := int32(1)<<(shift-1) + int32(internalOffs)<<filterPrec
	s := tmpStride
	for y := 0; y < h; y++ {
		d := dst[y*dstStride : y*dstStride+w]
		base := off + y*tmpStride
		for x := range d {
			p := base + x
			sum := c[0]*int32(tmp[p]) +
				c[1]*int32(tmp[p+s]) +
				c[2]*int32(tmp[p+2*s]) +
				c[3]*int32(tmp[p+3*s]) +
				c[4]*int32(tmp[p+4*s]) +
				c[5]*int32(tmp[p+5*s]) +
				c[6]*int32(tmp[p+6*s]) +
				c[7]*int32(tmp[p+7*s])
			d[x] = clipSample((sum+offset)>>shift, maxVal)
		}
	}
}

// copyLast converts intermediate samples back to the sample domain without
// filtering (vertical phase zero).
func copyLast(dst []uint16, dstStride int, tmp []int16, tmpStride, off, w, h, headRoom int, maxVal int32) {
	offset := int32(internalOffs) + int32(1)<<(headRoom-1)
	for y := 0; y < h; y++ {
		d := dst[y*dstStride : y*dstStride+w]
		t := tmp[off+y*tmpStride : off+y*tmpStride+w]
		for x, v := range t {
			d[x] = clipSample((int32(v)+offset)>>headRoom, maxVal)
		}
	}
}

func clipSample(v, maxVal int32) uint16 {
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return uint16(maxVal)
	}
	return uint16(v)
}
